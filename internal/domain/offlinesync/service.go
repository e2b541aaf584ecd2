package offlinesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swarnabindu/prashan/internal/domain/doselog"
	"github.com/swarnabindu/prashan/internal/domain/registration"
	"github.com/swarnabindu/prashan/internal/domain/screening"
	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type RegistrationStore interface {
	Create(ctx context.Context, r *registration.Registration) error
	GetBySerial(ctx context.Context, serial string) (*registration.Registration, error)
	Search(ctx context.Context, f registration.Filter, limit, offset int) ([]*registration.Registration, int, error)
}

type ScreeningStore interface {
	Create(ctx context.Context, s *screening.Screening) error
}

type DoseLogStore interface {
	Create(ctx context.Context, d *doselog.DoseLog) error
}

// PullLimit caps how many registrations one GET /sync returns.
const PullLimit = 1000

type Service struct {
	regs       RegistrationStore
	screenings ScreeningStore
	doses      DoseLogStore
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(regs RegistrationStore, screenings ScreeningStore, doses DoseLogStore, logger zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{regs: regs, screenings: screenings, doses: doses, logger: logger, now: now}
}

// Process stores every item of b independently. A failing item is counted
// and reported; it never stops the rest of the batch.
func (s *Service) Process(ctx context.Context, b Batch) Results {
	res := Results{Registrations: newTally(), Screenings: newTally(), DoseLogs: newTally()}

	for i, raw := range b.Registrations {
		id := itemID(raw, i)
		if err := s.syncRegistration(ctx, raw); err != nil {
			res.Registrations.fail(id, err)
			s.logger.Warn().Err(err).Str("item", id).Msg("sync: registration failed")
			continue
		}
		res.Registrations.ok()
	}
	for i, raw := range b.Screenings {
		id := itemID(raw, i)
		if err := s.syncScreening(ctx, raw); err != nil {
			res.Screenings.fail(id, err)
			s.logger.Warn().Err(err).Str("item", id).Msg("sync: screening failed")
			continue
		}
		res.Screenings.ok()
	}
	for i, raw := range b.DoseLogs {
		id := itemID(raw, i)
		if err := s.syncDoseLog(ctx, raw); err != nil {
			res.DoseLogs.fail(id, err)
			s.logger.Warn().Err(err).Str("item", id).Msg("sync: dose log failed")
			continue
		}
		res.DoseLogs.ok()
	}

	s.logger.Info().
		Int("registrations", res.Registrations.Success).
		Int("screenings", res.Screenings.Success).
		Int("dose_logs", res.DoseLogs.Success).
		Int("failed", res.Registrations.Failed+res.Screenings.Failed+res.DoseLogs.Failed).
		Msg("sync batch processed")
	return res
}

// itemID picks the identifier the device will recognise in the error list.
func itemID(raw json.RawMessage, index int) string {
	var keys struct {
		LocalID  string `json:"local_id"`
		LocalID2 string `json:"localId"`
		ID       string `json:"id"`
		SerialNo string `json:"serial_no"`
	}
	_ = json.Unmarshal(raw, &keys)
	for _, v := range []string{keys.LocalID, keys.LocalID2, keys.ID, keys.SerialNo} {
		if v != "" {
			return v
		}
	}
	return fmt.Sprintf("#%d", index)
}

func (s *Service) syncRegistration(ctx context.Context, raw json.RawMessage) error {
	reg, err := s.decodeRegistration(raw)
	if err != nil {
		return err
	}
	now := s.now()
	reg.SyncedAt = &now
	err = s.regs.Create(ctx, reg)
	if errors.Is(err, apperr.ErrDuplicate) {
		// Already uploaded by an earlier attempt.
		return nil
	}
	return err
}

// decodeRegistration accepts either a stored registration row or a raw
// intake form record (birth_date instead of date_of_birth).
func (s *Service) decodeRegistration(raw json.RawMessage) (*registration.Registration, error) {
	var probe map[string]interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Invalid("malformed registration: " + err.Error())
	}
	if _, isForm := probe[form.FieldBirthDate]; isForm {
		if _, isRow := probe["date_of_birth"]; !isRow {
			reg := registration.FromFormData(form.ApplyDerived(form.FormData(probe), s.now()))
			if v, ok := probe["localId"].(string); ok && reg.LocalID == "" {
				reg.LocalID = v
			}
			return reg, nil
		}
	}
	var reg registration.Registration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, apperr.Invalid("malformed registration: " + err.Error())
	}
	if v, ok := probe["localId"].(string); ok && reg.LocalID == "" {
		reg.LocalID = v
	}
	reg.ID = uuid.Nil
	return &reg, nil
}

// Screenings and dose logs may reference their child by serial number when
// the device never learned the server id.
type childRef struct {
	RegistrationID string `json:"registration_id"`
	SerialNo       string `json:"serial_no"`
}

func (s *Service) resolveRegistration(ctx context.Context, raw json.RawMessage) (uuid.UUID, error) {
	var ref childRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return uuid.Nil, apperr.Invalid("malformed item: " + err.Error())
	}
	if ref.RegistrationID != "" {
		id, err := uuid.Parse(ref.RegistrationID)
		if err != nil {
			return uuid.Nil, apperr.Invalid("invalid registration_id", "registration_id")
		}
		return id, nil
	}
	if ref.SerialNo != "" {
		reg, err := s.regs.GetBySerial(ctx, ref.SerialNo)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return uuid.Nil, apperr.Invalid("unknown serial_no "+ref.SerialNo, "serial_no")
			}
			return uuid.Nil, err
		}
		return reg.ID, nil
	}
	return uuid.Nil, apperr.Missing("registration_id")
}

// stripRef removes the reference keys so strict decoding into the model
// does not trip over a non-uuid registration_id.
func stripRef(raw json.RawMessage) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperr.Invalid("malformed item: " + err.Error())
	}
	delete(m, "registration_id")
	delete(m, "id")
	return json.Marshal(m)
}

func (s *Service) syncScreening(ctx context.Context, raw json.RawMessage) error {
	regID, err := s.resolveRegistration(ctx, raw)
	if err != nil {
		return err
	}
	body, err := stripRef(raw)
	if err != nil {
		return err
	}
	var sc screening.Screening
	if err := json.Unmarshal(body, &sc); err != nil {
		return apperr.Invalid("malformed screening: " + err.Error())
	}
	sc.RegistrationID = regID
	return s.screenings.Create(ctx, &sc)
}

func (s *Service) syncDoseLog(ctx context.Context, raw json.RawMessage) error {
	regID, err := s.resolveRegistration(ctx, raw)
	if err != nil {
		return err
	}
	body, err := stripRef(raw)
	if err != nil {
		return err
	}
	var d doselog.DoseLog
	if err := json.Unmarshal(body, &d); err != nil {
		return apperr.Invalid("malformed dose log: " + err.Error())
	}
	d.RegistrationID = regID
	return s.doses.Create(ctx, &d)
}

// Changes returns one page of at most PullLimit registrations updated after
// since, or of all registrations when since is nil, starting at offset. The
// total counts every match so callers can keep paging.
func (s *Service) Changes(ctx context.Context, since *time.Time, offset int) ([]*registration.Registration, int, error) {
	if offset < 0 {
		offset = 0
	}
	return s.regs.Search(ctx, registration.Filter{UpdatedSince: since}, PullLimit, offset)
}
