package registration

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type columnKind int

const (
	kindText columnKind = iota
	kindDate
	kindFloat
	kindInt
	kindTextList
)

// updatable lists the columns PUT /registrations may change. serial_no and
// the derived age columns are not in it.
var updatable = map[string]columnKind{
	"child_name":          kindText,
	"date_of_birth":       kindDate,
	"gender":              kindText,
	"guardian_name":       kindText,
	"father_name":         kindText,
	"mother_name":         kindText,
	"contact_number":      kindText,
	"caste":               kindText,
	"religion":            kindText,
	"ethnicity":           kindText,
	"language":            kindText,
	"district":            kindText,
	"palika":              kindText,
	"ward":                kindText,
	"tole":                kindText,
	"weight":              kindFloat,
	"height":              kindFloat,
	"muac":                kindFloat,
	"head_circumference":  kindFloat,
	"chest_circumference": kindFloat,
	"vaccination_status":  kindText,
	"health_issues":       kindText,
	"health_conditions":   kindTextList,
	"swarnabindu_date":    kindDate,
	"dose_amount":         kindText,
	"dose_time":           kindText,
	"administered_by":     kindText,
	"child_reaction":      kindText,
	"doses_given":         kindInt,
	"notes":               kindText,
	"registration_date":   kindDate,
}

// derivedColumns are written by the service alongside an updated birth date.
var derivedColumns = map[string]columnKind{
	"age":              kindText,
	"child_age_months": kindInt,
}

func columnKindOf(col string) (columnKind, bool) {
	if k, ok := updatable[col]; ok {
		return k, true
	}
	k, ok := derivedColumns[col]
	return k, ok
}

// normalize converts a decoded JSON value to what the column stores. Blank
// values become nil.
func normalize(col string, kind columnKind, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindText:
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, nil
			}
			return nil, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(t), nil
		}
	case kindDate:
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, nil
			}
			if isDate(s) {
				return s, nil
			}
			return nil, apperr.Invalid(col+" must be YYYY-MM-DD", col)
		}
	case kindFloat:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, nil
			}
		}
	case kindInt:
		switch t := v.(type) {
		case int:
			return t, nil
		case float64:
			if t == math.Trunc(t) {
				return int(t), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return n, nil
			}
		}
	case kindTextList:
		switch t := v.(type) {
		case []string:
			return t, nil
		case []interface{}:
			out := make([]string, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					return nil, apperr.Invalid(col+" must be a list of strings", col)
				}
				out = append(out, s)
			}
			return out, nil
		}
	}
	return nil, apperr.Invalid(fmt.Sprintf("%s has an invalid value", col), col)
}

// castFor returns the SQL cast for a placeholder of kind.
func castFor(kind columnKind) string {
	if kind == kindDate {
		return "::text::date"
	}
	return ""
}
