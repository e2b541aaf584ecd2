// Package dosage derives age and Swarnabindu dose recommendations from a
// child's birth date.
//
// All age-dependent values are computed through MonthsBetween.
package dosage

import (
	"fmt"
	"strings"
	"time"
)

// Eligibility window in whole months, inclusive on both ends.
const (
	MinEligibleMonths = 6
	MaxEligibleMonths = 60
)

// Dose is the number of drops administered. The zero value means no dose is
// recommended.
type Dose string

const (
	DoseNone Dose = ""
	DoseOne  Dose = "1"
	DoseTwo  Dose = "2"
	DoseFour Dose = "4"
)

// ValidDose reports whether s is one of the dose amounts the program uses.
func ValidDose(s string) bool {
	switch Dose(s) {
	case DoseOne, DoseTwo, DoseFour:
		return true
	}
	return false
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006/01/02"}

// ParseBirthDate accepts an ISO date (optionally with a time component).
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthsBetween returns (ref.year-birth.year)*12 + (ref.month-birth.month).
// Day of month is ignored: a child born on the 28th is one month old on the
// 1st of the following month.
func MonthsBetween(birth, ref time.Time) int {
	return (ref.Year()-birth.Year())*12 + int(ref.Month()) - int(birth.Month())
}

// AgeInMonths parses birthISO and returns its month difference to ref. The
// bool is false when the date cannot be parsed.
func AgeInMonths(birthISO string, ref time.Time) (int, bool) {
	birth, ok := ParseBirthDate(birthISO)
	if !ok {
		return 0, false
	}
	return MonthsBetween(birth, ref), true
}

// Eligible reports whether months falls inside the program's age window.
func Eligible(months int) bool {
	return months >= MinEligibleMonths && months <= MaxEligibleMonths
}

// RecommendedDose maps an age to a dose using the bands [6,12) -> 1,
// [12,24) -> 2 and [24,60] -> 4.
func RecommendedDose(months int) (Dose, bool) {
	switch {
	case !Eligible(months):
		return DoseNone, false
	case months < 12:
		return DoseOne, true
	case months < 24:
		return DoseTwo, true
	default:
		return DoseFour, true
	}
}

// AgeDisplay formats an age as "<n> महिना", "<y> वर्ष" or "<y> वर्ष <m> महिना".
// An unparseable or future birth date yields "".
func AgeDisplay(birthISO string, ref time.Time) string {
	months, ok := AgeInMonths(birthISO, ref)
	if !ok || months < 0 {
		return ""
	}
	return formatAge(months, "वर्ष", "वर्ष", "महिना", "महिना")
}

// AgeDisplayEnglish is the English rendering of AgeDisplay.
func AgeDisplayEnglish(birthISO string, ref time.Time) string {
	months, ok := AgeInMonths(birthISO, ref)
	if !ok || months < 0 {
		return ""
	}
	return formatAge(months, "year", "years", "month", "months")
}

func formatAge(months int, year, years, month, monthsWord string) string {
	plural := func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	}
	if months < 12 {
		return fmt.Sprintf("%d %s", months, plural(months, month, monthsWord))
	}
	y, m := months/12, months%12
	if m == 0 {
		return fmt.Sprintf("%d %s", y, plural(y, year, years))
	}
	return fmt.Sprintf("%d %s %d %s", y, plural(y, year, years), m, plural(m, month, monthsWord))
}

// Derived bundles every value computed from a birth date.
type Derived struct {
	Months   int    `json:"child_age_months"`
	Known    bool   `json:"known"`
	Age      string `json:"age"`
	AgeEn    string `json:"age_en"`
	Eligible bool   `json:"eligible"`
	Dose     Dose   `json:"dose_amount,omitempty"`
}

// Derive computes all derived fields for birthISO at ref. A missing or
// malformed birth date produces an empty, ineligible result.
func Derive(birthISO string, ref time.Time) Derived {
	months, ok := AgeInMonths(birthISO, ref)
	if !ok {
		return Derived{}
	}
	dose, eligible := RecommendedDose(months)
	return Derived{
		Months:   months,
		Known:    true,
		Age:      AgeDisplay(birthISO, ref),
		AgeEn:    AgeDisplayEnglish(birthISO, ref),
		Eligible: eligible,
		Dose:     dose,
	}
}
