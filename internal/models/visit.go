package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Visitor types offered by the registration form. Stored as free text; the
// only value the service treats specially is VisitorTypeParent.
const (
	VisitorTypeParent  = "Parent"
	VisitorTypeVisitor = "Visitor"
	VisitorTypeAlumnus = "Alumnus"
	VisitorTypeOther   = "Other"
)

// PlaceholderValue is stored in child/class columns for non-parent visitors.
const PlaceholderValue = "N/A"

// VisitRecord is one registrant's row in the visits table.
type VisitRecord struct {
	ID           uuid.UUID `json:"id"`
	ChildName    string    `json:"childName"`
	ClassName    string    `json:"className"`
	FatherName   string    `json:"fatherName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Email        string    `json:"email"`
	VisitorCount int       `json:"visitorCount"`
	VisitorType  string    `json:"visitorType"`
	Visited      bool      `json:"visited"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsParent reports whether the record was registered by a parent.
func (v *VisitRecord) IsParent() bool {
	return v.VisitorType == VisitorTypeParent
}

// FlexCount decodes a visitor count that clients send either as a JSON
// number or as a string ("2"). The registration form submits strings.
type FlexCount int

// ErrNegativeCount is returned when a request carries a negative visitor count.
var ErrNegativeCount = errors.New("visitorCount must be non-negative")

// UnmarshalJSON accepts 2, "2", "" and null; anything non-numeric or
// negative is rejected.
func (f *FlexCount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("visitorCount must be a number")
	}
	if n < 0 {
		return ErrNegativeCount
	}
	*f = FlexCount(n)
	return nil
}
