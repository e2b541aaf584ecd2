package registration

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

// Filter narrows a registration listing. Zero values match everything.
// From and To bound registration_date inclusively.
type Filter struct {
	Search       string     `json:"search,omitempty"`
	District     string     `json:"district,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	MinAgeMonths *int       `json:"min_age_months,omitempty"`
	MaxAgeMonths *int       `json:"max_age_months,omitempty"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
	UpdatedSince *time.Time `json:"updated_since,omitempty"`
}

// FilterFromContext reads the listing query parameters.
func FilterFromContext(c echo.Context) (Filter, error) {
	f := Filter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		District: strings.TrimSpace(c.QueryParam("district")),
		Gender:   strings.TrimSpace(c.QueryParam("gender")),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
	}
	var err error
	if f.MinAgeMonths, err = intParam(c, "min_age_months"); err != nil {
		return f, err
	}
	if f.MaxAgeMonths, err = intParam(c, "max_age_months"); err != nil {
		return f, err
	}
	for name, v := range map[string]string{"from": f.From, "to": f.To} {
		if v != "" && !isDate(v) {
			return f, apperr.Invalid(name+" must be YYYY-MM-DD", name)
		}
	}
	return f, nil
}

func intParam(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, apperr.Invalid(name+" must be a non-negative integer", name)
	}
	return &n, nil
}

// Matches applies the filter in memory, computing ages at ref. It mirrors
// the SQL built by whereClause.
func (f Filter) Matches(r *Registration, ref time.Time) bool {
	if r == nil {
		return false
	}
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(r.ChildName), q) &&
			!strings.Contains(strings.ToLower(r.ContactNumber), q) &&
			!strings.Contains(strings.ToLower(r.SerialNo), q) {
			return false
		}
	}
	if f.District != "" && !strings.EqualFold(r.District, f.District) {
		return false
	}
	if f.Gender != "" && r.Gender != f.Gender {
		return false
	}
	if f.MinAgeMonths != nil || f.MaxAgeMonths != nil {
		months, ok := dosage.AgeInMonths(r.DateOfBirth, ref)
		if !ok {
			return false
		}
		if f.MinAgeMonths != nil && months < *f.MinAgeMonths {
			return false
		}
		if f.MaxAgeMonths != nil && months > *f.MaxAgeMonths {
			return false
		}
	}
	if f.From != "" && r.RegistrationDate < f.From {
		return false
	}
	if f.To != "" && (r.RegistrationDate == "" || r.RegistrationDate > f.To) {
		return false
	}
	if f.UpdatedSince != nil && !r.UpdatedAt.After(*f.UpdatedSince) {
		return false
	}
	return true
}

// Apply returns the registrations matching f, preserving order.
func (f Filter) Apply(regs []*Registration, ref time.Time) []*Registration {
	out := make([]*Registration, 0, len(regs))
	for _, r := range regs {
		if f.Matches(r, ref) {
			out = append(out, r)
		}
	}
	return out
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
