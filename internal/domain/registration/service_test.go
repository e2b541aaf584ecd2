package registration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

func TestService_Create(t *testing.T) {
	svc, repo, _ := newTestService()
	r := validRegistration()
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !regexp.MustCompile(`^SP\d{6}[0-9A-Z]{3}$`).MatchString(r.SerialNo) {
		t.Errorf("unexpected serial %q", r.SerialNo)
	}
	if r.ChildAgeMonths == nil || *r.ChildAgeMonths != 18 {
		t.Errorf("expected 18 months, got %v", r.ChildAgeMonths)
	}
	if r.Age != "1 वर्ष 6 महिना" {
		t.Errorf("unexpected age %q", r.Age)
	}
	if r.RegistrationDate != "2026-10-18" || r.DosesGiven != 1 {
		t.Errorf("unexpected defaults: date=%s doses=%d", r.RegistrationDate, r.DosesGiven)
	}
	if len(repo.store) != 1 {
		t.Error("expected registration stored")
	}
}

func TestService_Create_KeepsSerial(t *testing.T) {
	svc, _, _ := newTestService()
	r := validRegistration()
	r.SerialNo = "SP000001AAA"
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if r.SerialNo != "SP000001AAA" {
		t.Errorf("serial overwritten: %s", r.SerialNo)
	}
}

func TestService_Create_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	r := validRegistration()
	r.District = ""
	r.Ward = " "
	err := svc.Create(context.Background(), r)
	if err == nil || err.Error() != "Missing required fields: district, ward" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Registration)
	}{
		{"bad gender", func(r *Registration) { r.Gender = "boy" }},
		{"bad birth date", func(r *Registration) { r.DateOfBirth = "18-10-2025" }},
		{"future birth date", func(r *Registration) { r.DateOfBirth = "2027-01-01" }},
		{"bad dose", func(r *Registration) { r.DoseAmount = "3" }},
		{"bad registration date", func(r *Registration) { r.RegistrationDate = "yesterday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			r := validRegistration()
			tt.mutate(r)
			if err := svc.Create(context.Background(), r); !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.store) != 0 {
				t.Error("invalid registration stored")
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _, _ := newTestService()
	r := validRegistration()
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	newDOB := testNow.AddDate(0, -30, 0).Format("2006-01-02")
	got, err := svc.Update(context.Background(), r.ID, map[string]interface{}{
		"date_of_birth": newDOB,
		"ward":          float64(7),
		"tole":          "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DateOfBirth != newDOB || got.ChildAgeMonths == nil || *got.ChildAgeMonths != 30 {
		t.Errorf("derived age not refreshed: %s %v", got.DateOfBirth, got.ChildAgeMonths)
	}
	if got.Ward != "7" {
		t.Errorf("expected ward 7, got %q", got.Ward)
	}
}

func TestService_Update_Rejects(t *testing.T) {
	svc, _, _ := newTestService()
	r := validRegistration()
	_ = svc.Create(context.Background(), r)

	tests := []struct {
		name  string
		patch map[string]interface{}
	}{
		{"empty patch", map[string]interface{}{}},
		{"unknown column", map[string]interface{}{"is_admin": true}},
		{"serial is fixed", map[string]interface{}{"serial_no": "SP1"}},
		{"clear required", map[string]interface{}{"child_name": "  "}},
		{"bad gender", map[string]interface{}{"gender": "x"}},
		{"bad date", map[string]interface{}{"date_of_birth": "tomorrow"}},
		{"bad weight", map[string]interface{}{"weight": "heavy"}},
		{"bad conditions", map[string]interface{}{"health_conditions": []interface{}{1.0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Update(context.Background(), r.ID, tt.patch); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Update(context.Background(), uuid.New(), map[string]interface{}{"tole": "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func submission(months int) form.FormData {
	return form.FormData{
		"child_name": "आरव", "birth_date": testNow.AddDate(0, -months, 0).Format("2006-01-02"),
		"gender": "male", "guardian_name": "सीता", "contact_number": "9841000000",
		"district": "ललितपुर", "palika": "गोदावरी", "ward": float64(3),
		"vaccination_status": "complete", "health_conditions": []interface{}{"cold"}, "weight": 10.5,
		"dose_time": "बिहान", "administered_by": "डा. शर्मा", "child_reaction": "normal",
		"drug_allergies": "none",
	}
}

func TestService_Submit(t *testing.T) {
	svc, repo, doses := newTestService()
	reg, res, err := svc.Submit(context.Background(), form.DefaultSchema(), submission(18))
	if err != nil {
		t.Fatalf("unexpected error: %v (errors %v)", err, res.Errors)
	}
	if !res.IsValid || reg == nil {
		t.Fatalf("expected valid submission, got %v", res.Errors)
	}
	if reg.DoseAmount != "2" || reg.Ward != "3" || reg.SwarnabinduDate != "2026-10-18" {
		t.Errorf("unexpected registration %+v", reg)
	}
	if reg.HealthIssues != "cold" {
		t.Errorf("expected health issues from conditions, got %q", reg.HealthIssues)
	}
	if reg.FormData["drug_allergies"] != "none" {
		t.Errorf("expected extra answers kept, got %v", reg.FormData)
	}
	if len(repo.store) != 1 || len(doses.logs) != 1 {
		t.Fatalf("expected 1 registration and 1 dose log, got %d/%d", len(repo.store), len(doses.logs))
	}
	if d := doses.logs[0]; d.RegistrationID != reg.ID || d.DoseAmount != "2" || *d.DoseTime != "बिहान" {
		t.Errorf("unexpected dose log %+v", d)
	}
}

func TestService_Submit_FieldErrors(t *testing.T) {
	svc, repo, _ := newTestService()
	data := submission(18)
	delete(data, "contact_number")
	reg, res, err := svc.Submit(context.Background(), form.DefaultSchema(), data)
	if err != nil || reg != nil {
		t.Fatalf("expected field errors only, got reg=%v err=%v", reg, err)
	}
	if _, ok := res.Errors["contact_number"]; !ok {
		t.Errorf("expected contact_number error, got %v", res.Errors)
	}
	if len(repo.store) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestService_Submit_Rejections(t *testing.T) {
	svc, repo, _ := newTestService()
	if _, _, err := svc.Submit(context.Background(), form.DefaultSchema(), submission(70)); !errors.Is(err, form.ErrIneligible) {
		t.Errorf("expected ErrIneligible, got %v", err)
	}
	data := submission(18)
	data["health_conditions"] = []interface{}{"fever"}
	_, _, err := svc.Submit(context.Background(), form.DefaultSchema(), data)
	if !errors.Is(err, form.ErrContraindicated) || !IsFormRejection(err) {
		t.Errorf("expected ErrContraindicated, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("rejected child must not be registered")
	}
}

func TestService_Submit_DoseFailureFails(t *testing.T) {
	svc, _, doses := newTestService()
	doses.err = errors.New("dose_logs unavailable")
	if _, _, err := svc.Submit(context.Background(), form.DefaultSchema(), submission(18)); err == nil {
		t.Fatal("expected the dose log error to abort the submission")
	}
}

func TestService_Certificate(t *testing.T) {
	svc, _, _ := newTestService()
	reg, _, err := svc.Submit(context.Background(), form.DefaultSchema(), submission(18))
	if err != nil {
		t.Fatal(err)
	}
	cert, err := svc.Certificate(context.Background(), reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^SP-\d{6}$`).MatchString(cert.Number) {
		t.Errorf("unexpected certificate number %q", cert.Number)
	}
	if cert.TotalDoses != 1 || cert.StartDate != "2026-10-18" || cert.LastDoseDate != "2026-10-18" {
		t.Errorf("unexpected certificate %+v", cert)
	}
	if _, err := svc.Certificate(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
