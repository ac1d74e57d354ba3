package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types sent by the worker.
const (
	EmailTypeRegistrationConfirmation = "registration_confirmation"
)

// Email log delivery statuses.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records confirmation emails queued for registrants.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	VisitID        *uuid.UUID `json:"visitId,omitempty"`
	EmailType      string     `json:"emailType"`
	RecipientEmail string     `json:"recipientEmail"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
