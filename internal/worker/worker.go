package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/emaillogs"
	"github.com/sgs-visits/backend/internal/mailer"
	"github.com/sgs-visits/backend/pkg/queue"
)

// ConfirmationProcessor processes confirmation email jobs: deliver via SMTP
// and record the outcome on the email log row.
type ConfirmationProcessor struct {
	logRepo *emaillogs.Repository
	mailer  *mailer.Mailer
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewConfirmationProcessor creates a confirmation email processor.
func NewConfirmationProcessor(logRepo *emaillogs.Repository, m *mailer.Mailer, q *queue.Queue, logger *zap.Logger) *ConfirmationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationProcessor{logRepo: logRepo, mailer: m, queue: q, logger: logger}
}

// Process executes one confirmation email job.
func (p *ConfirmationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := p.mailer.Send(payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		if markErr := p.logRepo.MarkFailed(ctx, payload.EmailLogID, err.Error()); markErr != nil {
			p.logger.Error("mark email failed errored", zap.Error(markErr), zap.String("email_log_id", payload.EmailLogID.String()))
		}
		return fmt.Errorf("send: %w", err)
	}

	if err := p.logRepo.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Error("mark email sent failed", zap.Error(err), zap.String("email_log_id", payload.EmailLogID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("confirmation email sent",
		zap.String("email_log_id", payload.EmailLogID.String()),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ConfirmationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
