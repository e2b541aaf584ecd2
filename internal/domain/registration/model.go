package registration

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var validGenders = map[string]bool{GenderMale: true, GenderFemale: true, GenderOther: true}

// Ward is a ward number kept as text. Devices send it either as a JSON
// number or a string.
type Ward string

func (w *Ward) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*w = Ward(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*w = Ward(strings.TrimSpace(s))
	return nil
}

// Registration maps to the registrations table.
//
// Dates are ISO "YYYY-MM-DD" strings. Optional text columns are stored as
// NULL and read back as "".
type Registration struct {
	ID                 uuid.UUID              `db:"id" json:"id"`
	SerialNo           string                 `db:"serial_no" json:"serial_no"`
	ChildName          string                 `db:"child_name" json:"child_name"`
	DateOfBirth        string                 `db:"date_of_birth" json:"date_of_birth"`
	Age                string                 `db:"age" json:"age,omitempty"`
	ChildAgeMonths     *int                   `db:"child_age_months" json:"child_age_months,omitempty"`
	Gender             string                 `db:"gender" json:"gender"`
	GuardianName       string                 `db:"guardian_name" json:"guardian_name,omitempty"`
	FatherName         string                 `db:"father_name" json:"father_name,omitempty"`
	MotherName         string                 `db:"mother_name" json:"mother_name,omitempty"`
	ContactNumber      string                 `db:"contact_number" json:"contact_number"`
	Caste              string                 `db:"caste" json:"caste,omitempty"`
	Religion           string                 `db:"religion" json:"religion,omitempty"`
	Ethnicity          string                 `db:"ethnicity" json:"ethnicity,omitempty"`
	Language           string                 `db:"language" json:"language,omitempty"`
	District           string                 `db:"district" json:"district"`
	Palika             string                 `db:"palika" json:"palika"`
	Ward               Ward                   `db:"ward" json:"ward"`
	Tole               string                 `db:"tole" json:"tole,omitempty"`
	Weight             *float64               `db:"weight" json:"weight,omitempty"`
	Height             *float64               `db:"height" json:"height,omitempty"`
	MUAC               *float64               `db:"muac" json:"muac,omitempty"`
	HeadCircumference  *float64               `db:"head_circumference" json:"head_circumference,omitempty"`
	ChestCircumference *float64               `db:"chest_circumference" json:"chest_circumference,omitempty"`
	VaccinationStatus  string                 `db:"vaccination_status" json:"vaccination_status,omitempty"`
	HealthIssues       string                 `db:"health_issues" json:"health_issues,omitempty"`
	HealthConditions   []string               `db:"health_conditions" json:"health_conditions,omitempty"`
	SwarnabinduDate    string                 `db:"swarnabindu_date" json:"swarnabindu_date,omitempty"`
	DoseAmount         string                 `db:"dose_amount" json:"dose_amount,omitempty"`
	DoseTime           string                 `db:"dose_time" json:"dose_time,omitempty"`
	AdministeredBy     string                 `db:"administered_by" json:"administered_by,omitempty"`
	ChildReaction      string                 `db:"child_reaction" json:"child_reaction,omitempty"`
	DosesGiven         int                    `db:"doses_given" json:"doses_given"`
	Notes              string                 `db:"notes" json:"notes,omitempty"`
	FormData           map[string]interface{} `db:"form_data" json:"form_data,omitempty"`
	RegistrationDate   string                 `db:"registration_date" json:"registration_date"`
	LocalID            string                 `db:"local_id" json:"local_id,omitempty"`
	SyncedAt           *time.Time             `db:"synced_at" json:"synced_at,omitempty"`
	CreatedAt          time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `db:"updated_at" json:"updated_at"`

	// Synced marks a copy that came from the server rather than the local
	// cache. It is never persisted.
	Synced bool `db:"-" json:"synced"`
}

// Clone returns a deep copy.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	c := *r
	c.ChildAgeMonths = cloneInt(r.ChildAgeMonths)
	c.Weight = cloneFloat(r.Weight)
	c.Height = cloneFloat(r.Height)
	c.MUAC = cloneFloat(r.MUAC)
	c.HeadCircumference = cloneFloat(r.HeadCircumference)
	c.ChestCircumference = cloneFloat(r.ChestCircumference)
	if r.HealthConditions != nil {
		c.HealthConditions = append([]string(nil), r.HealthConditions...)
	}
	if r.FormData != nil {
		c.FormData = make(map[string]interface{}, len(r.FormData))
		for k, v := range r.FormData {
			c.FormData[k] = v
		}
	}
	if r.SyncedAt != nil {
		t := *r.SyncedAt
		c.SyncedAt = &t
	}
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Fields flattens the registration for export. Empty optional values are
// left out so the export layer decides how to show them.
func (r *Registration) Fields() map[string]interface{} {
	m := map[string]interface{}{
		"id":                r.ID.String(),
		"serial_no":         r.SerialNo,
		"child_name":        r.ChildName,
		"date_of_birth":     r.DateOfBirth,
		"gender":            r.Gender,
		"contact_number":    r.ContactNumber,
		"district":          r.District,
		"palika":            r.Palika,
		"ward":              string(r.Ward),
		"registration_date": r.RegistrationDate,
		"doses_given":       r.DosesGiven,
		"synced":            r.Synced,
	}
	for k, v := range map[string]string{
		"age":                r.Age,
		"guardian_name":      r.GuardianName,
		"father_name":        r.FatherName,
		"mother_name":        r.MotherName,
		"tole":               r.Tole,
		"vaccination_status": r.VaccinationStatus,
		"health_issues":      r.HealthIssues,
		"dose_amount":        r.DoseAmount,
		"notes":              r.Notes,
	} {
		if v != "" {
			m[k] = v
		}
	}
	if r.Weight != nil {
		m["weight"] = strconv.FormatFloat(*r.Weight, 'f', -1, 64)
	}
	if len(r.HealthConditions) > 0 {
		m["health_conditions"] = r.HealthConditions
	}
	if !r.CreatedAt.IsZero() {
		m["created_at"] = r.CreatedAt
	}
	return m
}
