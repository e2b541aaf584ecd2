package sandbox

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/form"
)

var ref = time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

func TestDataGenerator_IntakeRecordIsValid(t *testing.T) {
	gen := NewDataGenerator(42, ref)
	for i := 0; i < 200; i++ {
		rec := form.ApplyDerived(gen.IntakeRecord(), ref)
		res, err := form.ValidateRecord(form.DefaultSchema(), rec, ref)
		if err != nil {
			t.Fatalf("record %d rejected: %v (%v)", i, err, rec)
		}
		if !res.IsValid {
			t.Fatalf("record %d invalid: %v", i, res.Errors)
		}
	}
}

func TestDataGenerator_BirthDatesEligible(t *testing.T) {
	gen := NewDataGenerator(7, ref)
	for i := 0; i < 500; i++ {
		months, ok := dosage.AgeInMonths(gen.birthDate(), ref)
		if !ok || !dosage.Eligible(months) {
			t.Fatalf("generated age %d months (ok=%v) is not eligible", months, ok)
		}
	}
}

func TestDataGenerator_Reproducible(t *testing.T) {
	a := NewSeeder(SeedConfig{Children: 5, ScreeningsPerChild: 1, FollowUpDosesPerChild: 2, Seed: 99}, ref).Generate()
	b := NewSeeder(SeedConfig{Children: 5, ScreeningsPerChild: 1, FollowUpDosesPerChild: 2, Seed: 99}, ref).Generate()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different data:\n%s", diff)
	}
	c := NewSeeder(SeedConfig{Children: 5, Seed: 100}, ref).Generate()
	if cmp.Equal(a[0].Intake, c[0].Intake) {
		t.Error("different seeds produced the same first record")
	}
}

func TestSeeder_Generate(t *testing.T) {
	children := NewSeeder(SeedConfig{Children: 3, ScreeningsPerChild: 2, FollowUpDosesPerChild: 1, Seed: 1}, ref).Generate()
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for _, c := range children {
		if len(c.Screenings) != 2 || len(c.DoseLogs) != 1 {
			t.Fatalf("unexpected visits %d/%d", len(c.Screenings), len(c.DoseLogs))
		}
		if got := c.Screenings[1]["screening_date"]; got != ref.AddDate(0, 0, -60).Format("2006-01-02") {
			t.Errorf("unexpected second screening date %v", got)
		}
		if !dosage.ValidDose(c.DoseLogs[0]["dose_amount"].(string)) {
			t.Errorf("invalid dose %v", c.DoseLogs[0]["dose_amount"])
		}
	}

	children[0].SetSerial("SP123456ABC")
	if children[0].Screenings[0]["serial_no"] != "SP123456ABC" || children[0].DoseLogs[0]["serial_no"] != "SP123456ABC" {
		t.Error("expected visits to reference the serial number")
	}
}

func TestExportNDJSON(t *testing.T) {
	children := NewSeeder(SeedConfig{Children: 4, Seed: 3}, ref).Generate()
	var buf bytes.Buffer
	if err := ExportNDJSON(&buf, children); err != nil {
		t.Fatalf("ExportNDJSON: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if rec["child_name"] == "" || rec["birth_date"] == "" {
		t.Errorf("unexpected record %v", rec)
	}
}
