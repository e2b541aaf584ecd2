package screening

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swarnabindu/prashan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type screeningRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &screeningRepoPG{pool: pool}
}

func (r *screeningRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const screeningCols = `id, registration_id, to_char(screening_date, 'YYYY-MM-DD'), screening_type,
	weight, height, health_issues, referral_status, next_steps,
	to_char(swarnabindu_date, 'YYYY-MM-DD'), dose_amount, doses_given, child_reaction,
	administered_by, notes, created_at, updated_at`

func scanScreening(row pgx.Row) (*Screening, error) {
	var s Screening
	err := row.Scan(&s.ID, &s.RegistrationID, &s.ScreeningDate, &s.ScreeningType,
		&s.Weight, &s.Height, &s.HealthIssues, &s.ReferralStatus, &s.NextSteps,
		&s.SwarnabinduDate, &s.DoseAmount, &s.DosesGiven, &s.ChildReaction,
		&s.AdministeredBy, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &s, nil
}

func (r *screeningRepoPG) Create(ctx context.Context, s *Screening) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO screenings (id, registration_id, screening_date, screening_type,
			weight, height, health_issues, referral_status, next_steps,
			swarnabindu_date, dose_amount, doses_given, child_reaction,
			administered_by, notes)
		VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $9, $10::text::date, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		s.ID, s.RegistrationID, s.ScreeningDate, s.ScreeningType,
		s.Weight, s.Height, s.HealthIssues, s.ReferralStatus, s.NextSteps,
		s.SwarnabinduDate, s.DoseAmount, s.DosesGiven, s.ChildReaction,
		s.AdministeredBy, s.Notes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err)
}

func (r *screeningRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Screening, error) {
	return scanScreening(r.conn(ctx).QueryRow(ctx, `SELECT `+screeningCols+` FROM screenings WHERE id = $1`, id))
}

func (r *screeningRepoPG) List(ctx context.Context, limit, offset int) ([]*Screening, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM screenings`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+screeningCols+` FROM screenings
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collect(rows, total)
}

func (r *screeningRepoPG) ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*Screening, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM screenings WHERE registration_id = $1`, registrationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+screeningCols+` FROM screenings WHERE registration_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, registrationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]*Screening, int, error) {
	defer rows.Close()
	var items []*Screening
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
