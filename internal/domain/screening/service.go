package screening

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, sc *Screening) error {
	var missing []string
	if sc.RegistrationID == uuid.Nil {
		missing = append(missing, "registration_id")
	}
	if strings.TrimSpace(sc.ScreeningDate) == "" {
		missing = append(missing, "screening_date")
	}
	if strings.TrimSpace(sc.ScreeningType) == "" {
		missing = append(missing, "screening_type")
	}
	if len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	if _, err := time.Parse("2006-01-02", sc.ScreeningDate); err != nil {
		return apperr.Invalid("screening_date must be YYYY-MM-DD", "screening_date")
	}
	if !validTypes[sc.ScreeningType] {
		return apperr.Invalid("screening_type must be first-time, follow-up or emergency", "screening_type")
	}
	if sc.ReferralStatus == "" {
		sc.ReferralStatus = ReferralNotRequired
	}
	if !validReferrals[sc.ReferralStatus] {
		return apperr.Invalid("referral_status must be not-required, referred or completed", "referral_status")
	}
	if sc.DoseAmount != nil && *sc.DoseAmount != "" && !dosage.ValidDose(*sc.DoseAmount) {
		return apperr.Invalid("dose_amount must be 1, 2 or 4", "dose_amount")
	}
	if sc.Weight != nil && *sc.Weight <= 0 {
		return apperr.Invalid("weight must be positive", "weight")
	}
	if sc.Height != nil && *sc.Height <= 0 {
		return apperr.Invalid("height must be positive", "height")
	}
	if sc.DosesGiven == 0 {
		sc.DosesGiven = 1
	}
	if sc.ChildReaction == "" {
		sc.ChildReaction = "normal"
	}
	return s.repo.Create(ctx, sc)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Screening, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Screening, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*Screening, int, error) {
	return s.repo.ListByRegistration(ctx, registrationID, limit, offset)
}
