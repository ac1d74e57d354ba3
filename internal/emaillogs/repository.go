package emaillogs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgs-visits/backend/internal/models"
)

const emailLogColumns = `id, visit_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at`

// Repository persists email delivery logs in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEmailLog(row pgx.Row) (*models.EmailLog, error) {
	var log models.EmailLog
	var subject, errMsg *string
	err := row.Scan(
		&log.ID, &log.VisitID, &log.EmailType, &log.RecipientEmail,
		&subject, &log.Status, &log.SentAt, &errMsg, &log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if subject != nil {
		log.Subject = *subject
	}
	if errMsg != nil {
		log.ErrorMessage = *errMsg
	}
	return &log, nil
}

// Create inserts a pending log row and fills the store-assigned fields.
func (r *Repository) Create(ctx context.Context, log *models.EmailLog) error {
	const q = `INSERT INTO email_logs (visit_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q,
		log.VisitID, log.EmailType, log.RecipientEmail, log.Subject, log.Status,
	).Scan(&log.ID, &log.CreatedAt)
}

// GetByID returns a log row, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	q := `SELECT ` + emailLogColumns + ` FROM email_logs WHERE id = $1`
	log, err := scanEmailLog(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return log, err
}

// MarkSent transitions the row to sent and stamps the delivery time.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = $2, sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.EmailLogStatusSent)
	return err
}

// MarkFailed transitions the row to failed with the delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE email_logs SET status = $2, error_message = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.EmailLogStatusFailed, reason)
	return err
}

// List returns the most recent log rows.
func (r *Repository) List(ctx context.Context, limit int) ([]models.EmailLog, error) {
	q := `SELECT ` + emailLogColumns + ` FROM email_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EmailLog
	for rows.Next() {
		log, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *log)
	}
	return list, rows.Err()
}
