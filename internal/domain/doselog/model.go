package doselog

import (
	"time"

	"github.com/google/uuid"
)

// DoseLog maps to the dose_logs table: one administration of Swarnabindu
// drops to a registered child. Dates are ISO "YYYY-MM-DD" strings.
type DoseLog struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	RegistrationID   uuid.UUID  `db:"registration_id" json:"registration_id"`
	ScreeningID      *uuid.UUID `db:"screening_id" json:"screening_id,omitempty"`
	DoseDate         string     `db:"dose_date" json:"dose_date"`
	DoseAmount       string     `db:"dose_amount" json:"dose_amount"`
	DoseTime         *string    `db:"dose_time" json:"dose_time,omitempty"`
	AdministeredBy   string     `db:"administered_by" json:"administered_by"`
	ChildReaction    string     `db:"child_reaction" json:"child_reaction"`
	ReactionDetails  *string    `db:"reaction_details" json:"reaction_details,omitempty"`
	NextDoseDate     *string    `db:"next_dose_date" json:"next_dose_date,omitempty"`
	FollowUpRequired bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpNotes    *string    `db:"follow_up_notes" json:"follow_up_notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Fields flattens the log for export. Optional values are omitted rather
// than set to nil.
func (d *DoseLog) Fields() map[string]interface{} {
	m := map[string]interface{}{
		"id":                 d.ID.String(),
		"registration_id":    d.RegistrationID.String(),
		"dose_date":          d.DoseDate,
		"dose_amount":        d.DoseAmount,
		"administered_by":    d.AdministeredBy,
		"child_reaction":     d.ChildReaction,
		"follow_up_required": d.FollowUpRequired,
	}
	if d.DoseTime != nil {
		m["dose_time"] = *d.DoseTime
	}
	if d.ReactionDetails != nil {
		m["reaction_details"] = *d.ReactionDetails
	}
	if d.NextDoseDate != nil {
		m["next_dose_date"] = *d.NextDoseDate
	}
	if d.FollowUpNotes != nil {
		m["follow_up_notes"] = *d.FollowUpNotes
	}
	if !d.CreatedAt.IsZero() {
		m["created_at"] = d.CreatedAt
	}
	return m
}

// Summary is the dose history of one child, used on the certificate.
type Summary struct {
	TotalDoses int    `json:"total_doses"`
	FirstDose  string `json:"first_dose,omitempty"`
	LastDose   string `json:"last_dose,omitempty"`
}
