package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgs-visits/backend/internal/models"
)

const visitColumns = `id, child_name, class_name, father_name, phone_number, email, visitor_count, visitor_type, visited, created_at, updated_at`

// Repository persists visit records in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a visits repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVisit(row pgx.Row) (*models.VisitRecord, error) {
	var rec models.VisitRecord
	err := row.Scan(
		&rec.ID, &rec.ChildName, &rec.ClassName, &rec.FatherName,
		&rec.PhoneNumber, &rec.Email, &rec.VisitorCount, &rec.VisitorType,
		&rec.Visited, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new visit record and fills the store-assigned fields.
func (r *Repository) Insert(ctx context.Context, rec *models.VisitRecord) error {
	const q = `INSERT INTO visits (child_name, class_name, father_name, phone_number, email, visitor_count, visitor_type, visited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		rec.ChildName, rec.ClassName, rec.FatherName, rec.PhoneNumber,
		rec.Email, rec.VisitorCount, rec.VisitorType, rec.Visited,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// GetByID returns a visit record by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.VisitRecord, error) {
	q := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`
	rec, err := scanVisit(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// FindByContact returns the most recently created record matching the
// supplied email and/or phone number, or nil when none match. At least one
// key must be non-empty.
func (r *Repository) FindByContact(ctx context.Context, email, phone string) (*models.VisitRecord, error) {
	var conds []string
	var args []any
	if email != "" {
		args = append(args, email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if phone != "" {
		args = append(args, phone)
		conds = append(conds, fmt.Sprintf("phone_number = $%d", len(args)))
	}
	if len(conds) == 0 {
		return nil, errors.New("email or phone required")
	}
	q := `SELECT ` + visitColumns + ` FROM visits WHERE ` + strings.Join(conds, " OR ") +
		` ORDER BY created_at DESC LIMIT 1`
	rec, err := scanVisit(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// List returns records newest-first with an optional case-insensitive
// substring filter across the name, class, contact and type columns, plus
// the total count for the same filter.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]models.VisitRecord, int, error) {
	where := ""
	var args []any
	if search != "" {
		where = ` WHERE child_name ILIKE $1 OR class_name ILIKE $1 OR father_name ILIKE $1
			OR email ILIKE $1 OR phone_number ILIKE $1 OR visitor_type ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + visitColumns + ` FROM visits` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.VisitRecord
	for rows.Next() {
		rec, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *rec)
	}
	return list, total, rows.Err()
}

// Update overwrites every editable field of the row. Returns the updated
// record, or nil when no row matches the id.
func (r *Repository) Update(ctx context.Context, rec *models.VisitRecord) (*models.VisitRecord, error) {
	const q = `UPDATE visits
		SET child_name = $2, class_name = $3, father_name = $4, phone_number = $5,
			email = $6, visitor_count = $7, visitor_type = $8, visited = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + visitColumns
	updated, err := scanVisit(r.pool.QueryRow(ctx, q,
		rec.ID, rec.ChildName, rec.ClassName, rec.FatherName, rec.PhoneNumber,
		rec.Email, rec.VisitorCount, rec.VisitorType, rec.Visited,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return updated, err
}

// Delete removes the row. Reports whether a row was actually deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
