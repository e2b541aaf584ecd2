package registration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
	"github.com/swarnabindu/prashan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type registrationRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &registrationRepoPG{pool: pool}
}

func (r *registrationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const regCols = `id, serial_no, child_name, to_char(date_of_birth, 'YYYY-MM-DD'), COALESCE(age, ''), child_age_months, gender,
	COALESCE(guardian_name, ''), COALESCE(father_name, ''), COALESCE(mother_name, ''), contact_number,
	COALESCE(caste, ''), COALESCE(religion, ''), COALESCE(ethnicity, ''), COALESCE(language, ''),
	district, palika, ward, COALESCE(tole, ''),
	weight, height, muac, head_circumference, chest_circumference,
	COALESCE(vaccination_status, ''), COALESCE(health_issues, ''), COALESCE(health_conditions, '{}'),
	COALESCE(to_char(swarnabindu_date, 'YYYY-MM-DD'), ''), COALESCE(dose_amount, ''), COALESCE(dose_time, ''),
	COALESCE(administered_by, ''), COALESCE(child_reaction, ''), doses_given, COALESCE(notes, ''), form_data,
	to_char(registration_date, 'YYYY-MM-DD'), COALESCE(local_id, ''), synced_at, created_at, updated_at`

func scanRegistration(row pgx.Row) (*Registration, error) {
	var r Registration
	var ward string
	err := row.Scan(&r.ID, &r.SerialNo, &r.ChildName, &r.DateOfBirth, &r.Age, &r.ChildAgeMonths, &r.Gender,
		&r.GuardianName, &r.FatherName, &r.MotherName, &r.ContactNumber,
		&r.Caste, &r.Religion, &r.Ethnicity, &r.Language,
		&r.District, &r.Palika, &ward, &r.Tole,
		&r.Weight, &r.Height, &r.MUAC, &r.HeadCircumference, &r.ChestCircumference,
		&r.VaccinationStatus, &r.HealthIssues, &r.HealthConditions,
		&r.SwarnabinduDate, &r.DoseAmount, &r.DoseTime,
		&r.AdministeredBy, &r.ChildReaction, &r.DosesGiven, &r.Notes, &r.FormData,
		&r.RegistrationDate, &r.LocalID, &r.SyncedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	r.Ward = Ward(ward)
	return &r, nil
}

// null stores "" as NULL.
func null(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *registrationRepoPG) Create(ctx context.Context, reg *Registration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO registrations (id, serial_no, child_name, date_of_birth, age, child_age_months, gender,
			guardian_name, father_name, mother_name, contact_number,
			caste, religion, ethnicity, language,
			district, palika, ward, tole,
			weight, height, muac, head_circumference, chest_circumference,
			vaccination_status, health_issues, health_conditions,
			swarnabindu_date, dose_amount, dose_time, administered_by, child_reaction, doses_given, notes,
			form_data, registration_date, local_id, synced_at)
		VALUES ($1, $2, $3, $4::text::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28::text::date, $29, $30, $31, $32, $33, $34, $35, $36::text::date, $37, $38)
		RETURNING created_at, updated_at`,
		reg.ID, reg.SerialNo, reg.ChildName, reg.DateOfBirth, null(reg.Age), reg.ChildAgeMonths, reg.Gender,
		null(reg.GuardianName), null(reg.FatherName), null(reg.MotherName), reg.ContactNumber,
		null(reg.Caste), null(reg.Religion), null(reg.Ethnicity), null(reg.Language),
		reg.District, reg.Palika, string(reg.Ward), null(reg.Tole),
		reg.Weight, reg.Height, reg.MUAC, reg.HeadCircumference, reg.ChestCircumference,
		null(reg.VaccinationStatus), null(reg.HealthIssues), reg.HealthConditions,
		null(reg.SwarnabinduDate), null(reg.DoseAmount), null(reg.DoseTime), null(reg.AdministeredBy),
		null(reg.ChildReaction), reg.DosesGiven, null(reg.Notes),
		reg.FormData, reg.RegistrationDate, null(reg.LocalID), reg.SyncedAt,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
	return db.Classify(err)
}

func (r *registrationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return scanRegistration(r.conn(ctx).QueryRow(ctx, `SELECT `+regCols+` FROM registrations WHERE id = $1`, id))
}

func (r *registrationRepoPG) GetBySerial(ctx context.Context, serial string) (*Registration, error) {
	return scanRegistration(r.conn(ctx).QueryRow(ctx, `SELECT `+regCols+` FROM registrations WHERE serial_no = $1`, serial))
}

func (r *registrationRepoPG) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Registration, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := []interface{}{id}
	for _, col := range cols {
		kind, ok := columnKindOf(col)
		if !ok {
			return nil, apperr.Invalid("unknown field "+col, col)
		}
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, len(args), castFor(kind)))
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE registrations SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + regCols
	return scanRegistration(r.conn(ctx).QueryRow(ctx, query, args...))
}

func (r *registrationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ageMonthsExpr is dosage.MonthsBetween(date_of_birth, today) in SQL.
const ageMonthsExpr = `((EXTRACT(YEAR FROM CURRENT_DATE) - EXTRACT(YEAR FROM date_of_birth)) * 12
	+ EXTRACT(MONTH FROM CURRENT_DATE) - EXTRACT(MONTH FROM date_of_birth))`

// whereClause renders f as a WHERE clause with positional arguments.
func whereClause(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.Search != "" {
		add("(child_name ILIKE ? OR contact_number ILIKE ? OR serial_no ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}
	if f.District != "" {
		add("LOWER(district) = LOWER(?)", f.District)
	}
	if f.Gender != "" {
		add("gender = ?", f.Gender)
	}
	if f.MinAgeMonths != nil {
		add(ageMonthsExpr+" >= ?", *f.MinAgeMonths)
	}
	if f.MaxAgeMonths != nil {
		add(ageMonthsExpr+" <= ?", *f.MaxAgeMonths)
	}
	if f.From != "" {
		add("registration_date >= ?::text::date", f.From)
	}
	if f.To != "" {
		add("registration_date <= ?::text::date", f.To)
	}
	if f.UpdatedSince != nil {
		add("updated_at > ?", *f.UpdatedSince)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (r *registrationRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Registration, int, error) {
	where, args := whereClause(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM registrations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + regCols + ` FROM registrations` + where + ` ORDER BY created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, reg)
	}
	return items, total, rows.Err()
}
