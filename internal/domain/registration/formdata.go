package registration

import (
	"strings"

	"github.com/swarnabindu/prashan/internal/form"
)

// Answers that map straight onto columns. Everything else a form collects
// is kept in FormData.
var formColumns = map[string]bool{
	form.FieldChildName: true, form.FieldBirthDate: true, form.FieldGender: true,
	form.FieldContactNumber: true, form.FieldAge: true, form.FieldAgeMonths: true,
	form.FieldDoseAmount: true, form.FieldHealthConditions: true, form.FieldChildReaction: true,
	"serial_no": true, "guardian_name": true, "father_name": true, "mother_name": true,
	"district": true, "palika": true, "ward": true, "tole": true,
	"caste": true, "religion": true, "ethnicity": true, "language": true,
	"weight": true, "height": true, "muac": true, "head_circumference": true, "chest_circumference": true,
	"vaccination_status": true, "health_issues": true, "swarnabindu_date": true,
	"dose_time": true, "administered_by": true, "notes": true, "local_id": true,
}

// FromFormData builds a registration from a submitted intake record.
// Derived values are expected to have been applied already.
func FromFormData(d form.FormData) *Registration {
	r := &Registration{
		SerialNo:          d.String("serial_no"),
		ChildName:         strings.TrimSpace(d.String(form.FieldChildName)),
		DateOfBirth:       d.String(form.FieldBirthDate),
		Age:               d.String(form.FieldAge),
		Gender:            d.String(form.FieldGender),
		GuardianName:      d.String("guardian_name"),
		FatherName:        d.String("father_name"),
		MotherName:        d.String("mother_name"),
		ContactNumber:     strings.TrimSpace(d.String(form.FieldContactNumber)),
		Caste:             d.String("caste"),
		Religion:          d.String("religion"),
		Ethnicity:         d.String("ethnicity"),
		Language:          d.String("language"),
		District:          d.String("district"),
		Palika:            d.String("palika"),
		Ward:              Ward(d.String("ward")),
		Tole:              d.String("tole"),
		Weight:            floatField(d, "weight"),
		Height:            floatField(d, "height"),
		MUAC:              floatField(d, "muac"),
		HeadCircumference: floatField(d, "head_circumference"),
		VaccinationStatus: d.String("vaccination_status"),
		HealthIssues:      d.String("health_issues"),
		HealthConditions:  d.Strings(form.FieldHealthConditions),
		SwarnabinduDate:   d.String("swarnabindu_date"),
		DoseAmount:        d.String(form.FieldDoseAmount),
		DoseTime:          d.String("dose_time"),
		AdministeredBy:    d.String("administered_by"),
		ChildReaction:     d.String(form.FieldChildReaction),
		Notes:             d.String("notes"),
		LocalID:           d.String("local_id"),
	}
	r.ChestCircumference = floatField(d, "chest_circumference")
	if m, ok := d.Float(form.FieldAgeMonths); ok {
		months := int(m)
		r.ChildAgeMonths = &months
	}
	if r.HealthIssues == "" && len(r.HealthConditions) > 0 {
		r.HealthIssues = strings.Join(r.HealthConditions, ", ")
	}
	for k, v := range d {
		if formColumns[k] {
			continue
		}
		if r.FormData == nil {
			r.FormData = make(map[string]interface{})
		}
		r.FormData[k] = v
	}
	return r
}

func floatField(d form.FormData, key string) *float64 {
	f, ok := d.Float(key)
	if !ok {
		return nil
	}
	return &f
}
