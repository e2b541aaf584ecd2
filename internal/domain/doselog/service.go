package doselog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

var validReactions = map[string]bool{"normal": true, "adverse": true}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, d *DoseLog) error {
	var missing []string
	if d.RegistrationID == uuid.Nil {
		missing = append(missing, "registration_id")
	}
	if strings.TrimSpace(d.DoseDate) == "" {
		missing = append(missing, "dose_date")
	}
	if strings.TrimSpace(d.DoseAmount) == "" {
		missing = append(missing, "dose_amount")
	}
	if strings.TrimSpace(d.AdministeredBy) == "" {
		missing = append(missing, "administered_by")
	}
	if len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	if !isDate(d.DoseDate) {
		return apperr.Invalid("dose_date must be YYYY-MM-DD", "dose_date")
	}
	if d.NextDoseDate != nil && *d.NextDoseDate != "" && !isDate(*d.NextDoseDate) {
		return apperr.Invalid("next_dose_date must be YYYY-MM-DD", "next_dose_date")
	}
	if !dosage.ValidDose(d.DoseAmount) {
		return apperr.Invalid("dose_amount must be 1, 2 or 4", "dose_amount")
	}
	if d.ChildReaction == "" {
		d.ChildReaction = "normal"
	}
	if !validReactions[d.ChildReaction] {
		return apperr.Invalid("child_reaction must be normal or adverse", "child_reaction")
	}
	if d.ChildReaction == "adverse" {
		d.FollowUpRequired = true
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*DoseLog, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*DoseLog, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*DoseLog, int, error) {
	return s.repo.ListByRegistration(ctx, registrationID, limit, offset)
}

func (s *Service) Summary(ctx context.Context, registrationID uuid.UUID) (Summary, error) {
	return s.repo.Summary(ctx, registrationID)
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
