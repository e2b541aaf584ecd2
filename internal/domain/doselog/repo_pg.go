package doselog

import (
	"context"
	"fmt"

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

type doseLogRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &doseLogRepoPG{pool: pool}
}

func (r *doseLogRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doseCols = `id, registration_id, screening_id,
	to_char(dose_date, 'YYYY-MM-DD'), dose_amount, dose_time, administered_by,
	child_reaction, reaction_details, to_char(next_dose_date, 'YYYY-MM-DD'),
	follow_up_required, follow_up_notes, created_at, updated_at`

func scanDose(row pgx.Row) (*DoseLog, error) {
	var d DoseLog
	err := row.Scan(&d.ID, &d.RegistrationID, &d.ScreeningID,
		&d.DoseDate, &d.DoseAmount, &d.DoseTime, &d.AdministeredBy,
		&d.ChildReaction, &d.ReactionDetails, &d.NextDoseDate,
		&d.FollowUpRequired, &d.FollowUpNotes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &d, nil
}

func (r *doseLogRepoPG) Create(ctx context.Context, d *DoseLog) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dose_logs (id, registration_id, screening_id, dose_date, dose_amount,
			dose_time, administered_by, child_reaction, reaction_details,
			next_dose_date, follow_up_required, follow_up_notes)
		VALUES ($1, $2, $3, $4::text::date, $5, $6, $7, $8, $9, $10::text::date, $11, $12)
		RETURNING created_at, updated_at`,
		d.ID, d.RegistrationID, d.ScreeningID, d.DoseDate, d.DoseAmount,
		d.DoseTime, d.AdministeredBy, d.ChildReaction, d.ReactionDetails,
		d.NextDoseDate, d.FollowUpRequired, d.FollowUpNotes,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err)
}

func (r *doseLogRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoseLog, error) {
	return scanDose(r.conn(ctx).QueryRow(ctx, `SELECT `+doseCols+` FROM dose_logs WHERE id = $1`, id))
}

func (r *doseLogRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*DoseLog, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM dose_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doseCols+` FROM dose_logs`+where+` ORDER BY dose_date DESC, created_at DESC`+
			limitOffset(n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DoseLog
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func limitOffset(n int) string {
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
}

func (r *doseLogRepoPG) List(ctx context.Context, limit, offset int) ([]*DoseLog, int, error) {
	return r.list(ctx, "", nil, limit, offset)
}

func (r *doseLogRepoPG) ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*DoseLog, int, error) {
	return r.list(ctx, ` WHERE registration_id = $1`, []interface{}{registrationID}, limit, offset)
}

func (r *doseLogRepoPG) Summary(ctx context.Context, registrationID uuid.UUID) (Summary, error) {
	var s Summary
	var first, last *string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), to_char(MIN(dose_date), 'YYYY-MM-DD'), to_char(MAX(dose_date), 'YYYY-MM-DD')
		FROM dose_logs WHERE registration_id = $1`, registrationID,
	).Scan(&s.TotalDoses, &first, &last)
	if err != nil {
		return Summary{}, err
	}
	if first != nil {
		s.FirstDose = *first
	}
	if last != nil {
		s.LastDose = *last
	}
	return s, nil
}
