package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/domain/doselog"
	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/export"
	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

// requiredFields must be present on every stored registration.
var requiredFields = []string{"child_name", "date_of_birth", "gender", "contact_number", "district", "palika", "ward"}

// DoseRecorder is the part of the dose log service registrations use.
type DoseRecorder interface {
	Create(ctx context.Context, d *doselog.DoseLog) error
	Summary(ctx context.Context, registrationID uuid.UUID) (doselog.Summary, error)
}

// TxRunner runs fn in a single transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo  Repository
	doses DoseRecorder
	tx    TxRunner
	now   func() time.Time

	// Printed on certificates.
	IssuedBy     string
	HealthCenter string
}

func NewService(repo Repository, doses DoseRecorder, tx TxRunner, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         repo,
		doses:        doses,
		tx:           tx,
		now:          now,
		IssuedBy:     "स्वर्णबिन्दु प्राशन कार्यक्रम",
		HealthCenter: "स्वर्णबिन्दु प्राशन केन्द्र",
	}
}

func (s *Service) today() string { return s.now().Format("2006-01-02") }

func missingFields(r *Registration) []string {
	values := map[string]string{
		"child_name":     r.ChildName,
		"date_of_birth":  r.DateOfBirth,
		"gender":         r.Gender,
		"contact_number": r.ContactNumber,
		"district":       r.District,
		"palika":         r.Palika,
		"ward":           string(r.Ward),
	}
	var missing []string
	for _, f := range requiredFields {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Create validates r, fills serial number, derived age and registration
// date, and stores it.
func (s *Service) Create(ctx context.Context, r *Registration) error {
	if missing := missingFields(r); len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	if !validGenders[r.Gender] {
		return apperr.Invalid("gender must be male, female or other", "gender")
	}
	if err := s.derive(r); err != nil {
		return err
	}
	if r.SwarnabinduDate != "" && !isDate(r.SwarnabinduDate) {
		return apperr.Invalid("swarnabindu_date must be YYYY-MM-DD", "swarnabindu_date")
	}
	if r.DoseAmount != "" && !dosage.ValidDose(r.DoseAmount) {
		return apperr.Invalid("dose_amount must be 1, 2 or 4", "dose_amount")
	}
	if r.SerialNo == "" {
		r.SerialNo = NewSerial(s.now())
	}
	if r.RegistrationDate == "" {
		r.RegistrationDate = s.today()
	} else if !isDate(r.RegistrationDate) {
		return apperr.Invalid("registration_date must be YYYY-MM-DD", "registration_date")
	}
	if r.DosesGiven == 0 {
		r.DosesGiven = 1
	}
	return s.repo.Create(ctx, r)
}

// derive sets age and child_age_months from the birth date.
func (s *Service) derive(r *Registration) error {
	birth, ok := dosage.ParseBirthDate(r.DateOfBirth)
	if !ok {
		return apperr.Invalid("date_of_birth must be YYYY-MM-DD", "date_of_birth")
	}
	if birth.After(s.now()) {
		return apperr.Invalid("date_of_birth cannot be in the future", "date_of_birth")
	}
	r.DateOfBirth = birth.Format("2006-01-02")
	d := dosage.Derive(r.DateOfBirth, s.now())
	r.Age = d.Age
	months := d.Months
	r.ChildAgeMonths = &months
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySerial(ctx context.Context, serial string) (*Registration, error) {
	return s.repo.GetBySerial(ctx, serial)
}

func (s *Service) Search(ctx context.Context, f Filter, limit, offset int) ([]*Registration, int, error) {
	return s.repo.Search(ctx, f, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Update applies a partial update. Unknown keys are rejected, required
// fields cannot be cleared and a changed birth date refreshes the derived
// age columns.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Registration, error) {
	if len(patch) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}
	fields := make(map[string]interface{}, len(patch))
	var cleared []string
	for col, raw := range patch {
		kind, ok := updatable[col]
		if !ok {
			return nil, apperr.Invalid("field "+col+" cannot be updated", col)
		}
		v, err := normalize(col, kind, raw)
		if err != nil {
			return nil, err
		}
		if v == nil && isRequired(col) {
			cleared = append(cleared, col)
		}
		fields[col] = v
	}
	if len(cleared) > 0 {
		return nil, apperr.Missing(cleared...)
	}
	if g, ok := fields["gender"].(string); ok && !validGenders[g] {
		return nil, apperr.Invalid("gender must be male, female or other", "gender")
	}
	if d, ok := fields["dose_amount"].(string); ok && !dosage.ValidDose(d) {
		return nil, apperr.Invalid("dose_amount must be 1, 2 or 4", "dose_amount")
	}
	if dob, ok := fields["date_of_birth"].(string); ok {
		probe := &Registration{DateOfBirth: dob}
		if err := s.derive(probe); err != nil {
			return nil, err
		}
		fields["age"] = probe.Age
		fields["child_age_months"] = *probe.ChildAgeMonths
	}
	return s.repo.Update(ctx, id, fields)
}

func isRequired(col string) bool {
	for _, f := range requiredFields {
		if f == col {
			return true
		}
	}
	return false
}

// Submit validates a complete intake record against schema and stores the
// registration together with its first dose log in one transaction. An
// invalid record returns the field errors with a nil registration; an
// ineligible or contraindicated child returns the matching form error.
func (s *Service) Submit(ctx context.Context, schema form.Schema, data form.FormData) (*Registration, form.Result, error) {
	ref := s.now()
	record := form.ApplyDerived(data, ref)
	res, err := form.ValidateRecord(schema, record, ref)
	if err != nil || !res.IsValid {
		return nil, res, err
	}

	reg := FromFormData(record)
	if reg.DoseAmount != "" && reg.SwarnabinduDate == "" {
		reg.SwarnabinduDate = s.today()
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, reg); err != nil {
			return err
		}
		if reg.DoseAmount == "" || reg.AdministeredBy == "" {
			return nil
		}
		dose := &doselog.DoseLog{
			RegistrationID: reg.ID,
			DoseDate:       reg.SwarnabinduDate,
			DoseAmount:     reg.DoseAmount,
			AdministeredBy: reg.AdministeredBy,
			ChildReaction:  reg.ChildReaction,
		}
		if reg.DoseTime != "" {
			dose.DoseTime = &reg.DoseTime
		}
		if details := record.String("adverse_reaction_details"); details != "" {
			dose.ReactionDetails = &details
		}
		return s.doses.Create(ctx, dose)
	})
	if err != nil {
		return nil, res, err
	}
	return reg, res, nil
}

// IsFormRejection reports whether err is an eligibility or
// contraindication rejection from Submit.
func IsFormRejection(err error) bool {
	return errors.Is(err, form.ErrIneligible) || errors.Is(err, form.ErrContraindicated)
}

// Certificate assembles the completion certificate for a registration.
func (s *Service) Certificate(ctx context.Context, id uuid.UUID) (export.Certificate, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return export.Certificate{}, err
	}
	sum, err := s.doses.Summary(ctx, id)
	if err != nil {
		return export.Certificate{}, err
	}
	now := s.now()
	start, last := sum.FirstDose, sum.LastDose
	if start == "" {
		start = reg.SwarnabinduDate
	}
	if last == "" {
		last = start
	}
	return export.Certificate{
		Number:       export.CertificateNumber(now),
		ChildName:    reg.ChildName,
		SerialNo:     reg.SerialNo,
		FatherName:   reg.FatherName,
		MotherName:   reg.MotherName,
		DateOfBirth:  reg.DateOfBirth,
		Age:          dosage.AgeDisplay(reg.DateOfBirth, now),
		TotalDoses:   sum.TotalDoses,
		StartDate:    start,
		LastDoseDate: last,
		IssuedAt:     now,
		IssuedBy:     s.IssuedBy,
		HealthCenter: s.HealthCenter,
	}, nil
}

// Card renders the QR code printed on the patient card.
func (s *Service) Card(ctx context.Context, id uuid.UUID, size int) ([]byte, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.CardPNG(export.CardPayload{
		ID:     reg.ID.String(),
		Serial: reg.SerialNo,
		Name:   reg.ChildName,
		Date:   reg.RegistrationDate,
	}, size)
}
