package emaillogs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/models"
	"github.com/sgs-visits/backend/pkg/queue"
)

// Notifier creates a pending log row and queues the confirmation email for
// the worker. Delivery is best-effort: registration never fails because the
// mail pipeline did.
type Notifier struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotifier creates a confirmation notifier.
func NewNotifier(repo *Repository, q *queue.Queue, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{repo: repo, queue: q, logger: logger}
}

// QueueConfirmation records and enqueues a registration confirmation for the
// given visit record. No-op when the record has no email address.
func (n *Notifier) QueueConfirmation(ctx context.Context, rec *models.VisitRecord) {
	if rec.Email == "" {
		return
	}

	subject := "Your visit registration is confirmed"
	visitID := rec.ID
	log := &models.EmailLog{
		VisitID:        &visitID,
		EmailType:      models.EmailTypeRegistrationConfirmation,
		RecipientEmail: rec.Email,
		Subject:        subject,
		Status:         models.EmailLogStatusPending,
	}
	if err := n.repo.Create(ctx, log); err != nil {
		n.logger.Error("create email log failed", zap.Error(err), zap.String("visit_id", rec.ID.String()))
		return
	}

	body := confirmationBody(rec)
	err := n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      models.EmailTypeRegistrationConfirmation,
		EmailLogID:     log.ID,
		VisitID:        rec.ID,
		RecipientEmail: rec.Email,
		Subject:        subject,
		Body:           body,
	})
	if err != nil {
		n.logger.Error("enqueue confirmation failed", zap.Error(err), zap.String("email_log_id", log.ID.String()))
	}
}

func confirmationBody(rec *models.VisitRecord) string {
	name := rec.FatherName
	if name == "" || name == models.PlaceholderValue {
		name = "Visitor"
	}
	return fmt.Sprintf(
		"Dear %s,\n\nYour visit registration is confirmed.\n\nVisit ID: %s\nVisitor type: %s\nParty size: %d\n\nPlease present your QR code at the gate on arrival.\n",
		name, rec.ID, rec.VisitorType, rec.VisitorCount,
	)
}
