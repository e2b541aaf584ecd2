package screening

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TypeFirstTime = "first-time"
	TypeFollowUp  = "follow-up"
	TypeEmergency = "emergency"

	ReferralNotRequired = "not-required"
	ReferralReferred    = "referred"
	ReferralCompleted   = "completed"
)

var (
	validTypes     = map[string]bool{TypeFirstTime: true, TypeFollowUp: true, TypeEmergency: true}
	validReferrals = map[string]bool{ReferralNotRequired: true, ReferralReferred: true, ReferralCompleted: true}
)

// Screening maps to the screenings table: a health check of a registered
// child, optionally with a dose given during the visit.
type Screening struct {
	ID              uuid.UUID `db:"id" json:"id"`
	RegistrationID  uuid.UUID `db:"registration_id" json:"registration_id"`
	ScreeningDate   string    `db:"screening_date" json:"screening_date"`
	ScreeningType   string    `db:"screening_type" json:"screening_type"`
	Weight          *float64  `db:"weight" json:"weight,omitempty"`
	Height          *float64  `db:"height" json:"height,omitempty"`
	HealthIssues    *string   `db:"health_issues" json:"health_issues,omitempty"`
	ReferralStatus  string    `db:"referral_status" json:"referral_status"`
	NextSteps       *string   `db:"next_steps" json:"next_steps,omitempty"`
	SwarnabinduDate *string   `db:"swarnabindu_date" json:"swarnabindu_date,omitempty"`
	DoseAmount      *string   `db:"dose_amount" json:"dose_amount,omitempty"`
	DosesGiven      int       `db:"doses_given" json:"doses_given"`
	ChildReaction   string    `db:"child_reaction" json:"child_reaction"`
	AdministeredBy  *string   `db:"administered_by" json:"administered_by,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (s *Screening) Fields() map[string]interface{} {
	m := map[string]interface{}{
		"id":              s.ID.String(),
		"registration_id": s.RegistrationID.String(),
		"screening_date":  s.ScreeningDate,
		"screening_type":  s.ScreeningType,
		"referral_status": s.ReferralStatus,
		"doses_given":     s.DosesGiven,
		"child_reaction":  s.ChildReaction,
	}
	if s.Weight != nil {
		m["weight"] = strconv.FormatFloat(*s.Weight, 'f', -1, 64)
	}
	if s.Height != nil {
		m["height"] = strconv.FormatFloat(*s.Height, 'f', -1, 64)
	}
	if s.HealthIssues != nil {
		m["health_issues"] = *s.HealthIssues
	}
	if s.NextSteps != nil {
		m["next_steps"] = *s.NextSteps
	}
	if s.DoseAmount != nil {
		m["dose_amount"] = *s.DoseAmount
	}
	if !s.CreatedAt.IsZero() {
		m["created_at"] = s.CreatedAt
	}
	return m
}
