package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is the slice of a visit record returned after a check-in.
type Result struct {
	ID          uuid.UUID `json:"id"`
	Visited     bool      `json:"visited"`
	ChildName   string    `json:"childName"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
}

// Repository performs the visited-flag transition against Postgres. Both
// paths are single UPDATE ... RETURNING statements, so resolution and flip
// rely only on the store's row-level atomicity. Re-applying visited = TRUE
// to an already-visited row is a value-level no-op, which is what makes
// re-scans safe.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a check-in repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const returningCols = `id, visited, child_name, phone_number, email`

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.Visited, &res.ChildName, &res.PhoneNumber, &res.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckInByID marks the record visited by its primary identifier. Returns
// nil when no row matches.
func (r *Repository) CheckInByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	const q = `UPDATE visits SET visited = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + returningCols
	return scanResult(r.pool.QueryRow(ctx, q, id))
}

// CheckInByContact marks visited the most recently created record matching
// the phone number and/or email. The recency-ordered select is nested in
// the UPDATE so the whole transition is one statement.
func (r *Repository) CheckInByContact(ctx context.Context, phone, email string) (*Result, error) {
	var conds []string
	var args []any
	if phone != "" {
		args = append(args, phone)
		conds = append(conds, fmt.Sprintf("phone_number = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conds) == 0 {
		return nil, errors.New("phone or email required")
	}
	q := `UPDATE visits SET visited = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM visits WHERE ` + strings.Join(conds, " OR ") + `
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING ` + returningCols
	return scanResult(r.pool.QueryRow(ctx, q, args...))
}
