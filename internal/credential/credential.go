// Package credential builds, serializes and parses the QR credential that
// re-identifies a visit record at check-in time.
package credential

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sgs-visits/backend/internal/models"
)

// ErrMalformed is returned when scanned text is not a usable credential.
// A malformed credential is rejected before any store access.
var ErrMalformed = errors.New("malformed credential")

// Payload is the JSON structure encoded into the scannable code. Key names
// are part of the credential contract and must not change: printed passes
// stay valid for as long as the record exists.
type Payload struct {
	VisitID      string `json:"visitId"`
	ChildName    string `json:"childName"`
	ClassName    string `json:"className"`
	FatherName   string `json:"fatherName"`
	PhoneNumber  string `json:"phoneNumber"`
	VisitorCount string `json:"visitorCount"`
	VisitorType  string `json:"visitorType"`
	Timestamp    string `json:"timestamp"`
}

// FromRecord builds a credential payload from a stored visit record.
// Blank child/class fall back to the placeholder so the printed pass never
// shows empty fields; the count is stringified per the original contract.
func FromRecord(rec *models.VisitRecord) Payload {
	child := rec.ChildName
	if child == "" {
		child = models.PlaceholderValue
	}
	class := rec.ClassName
	if class == "" {
		class = models.PlaceholderValue
	}
	ts := rec.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Payload{
		VisitID:      rec.ID.String(),
		ChildName:    child,
		ClassName:    class,
		FatherName:   rec.FatherName,
		PhoneNumber:  rec.PhoneNumber,
		VisitorCount: strconv.Itoa(rec.VisitorCount),
		VisitorType:  rec.VisitorType,
		Timestamp:    ts.Format(time.RFC3339),
	}
}

// Encode serializes the payload as the scannable code's text content.
func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Identity is the subset of a decoded credential used to resolve a record:
// the direct id, or the phone number fallback.
type Identity struct {
	VisitID     string
	PhoneNumber string
}

// decodedPayload tolerates both camelCase and snake_case key spellings;
// passes issued by older builds used the column names.
type decodedPayload struct {
	VisitID      string `json:"visitId"`
	ID           string `json:"id"`
	PhoneNumber  string `json:"phoneNumber"`
	PhoneNumber2 string `json:"phone_number"`
}

// Decode parses scanned text and extracts the identifying fields. Text that
// is not JSON, or carries neither an id nor a phone number, fails with
// ErrMalformed.
func Decode(text string) (Identity, error) {
	var raw decodedPayload
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Identity{}, ErrMalformed
	}
	id := raw.VisitID
	if id == "" {
		id = raw.ID
	}
	phone := raw.PhoneNumber
	if phone == "" {
		phone = raw.PhoneNumber2
	}
	if id == "" && phone == "" {
		return Identity{}, ErrMalformed
	}
	return Identity{VisitID: id, PhoneNumber: phone}, nil
}
