// Package export projects stored records into labelled rows and writes them
// as CSV, tab-separated (Excel) or printable HTML.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type Kind string

const (
	KindRegistration Kind = "registration"
	KindScreening    Kind = "screening"
	KindDoseLog      Kind = "dose_log"
)

// ParseKind accepts the kind names used in URLs and on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "registration", "registrations":
		return KindRegistration, nil
	case "screening", "screenings":
		return KindScreening, nil
	case "dose_log", "dose-log", "dose-logs", "dose_logs":
		return KindDoseLog, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// Record is anything that can flatten itself into named fields.
type Record interface {
	Fields() map[string]interface{}
}

// Map adapts a decoded JSON object to Record.
type Map map[string]interface{}

func (m Map) Fields() map[string]interface{} { return m }

type column struct {
	label string
	key   string
	stamp bool
}

var columns = map[Kind][]column{
	KindRegistration: {
		{label: "Serial No", key: "serial_no"},
		{label: "Child Name", key: "child_name"},
		{label: "Date of Birth", key: "date_of_birth"},
		{label: "Age", key: "age"},
		{label: "Gender", key: "gender"},
		{label: "Father Name", key: "father_name"},
		{label: "Mother Name", key: "mother_name"},
		{label: "Contact", key: "contact_number"},
		{label: "District", key: "district"},
		{label: "Palika", key: "palika"},
		{label: "Ward", key: "ward"},
		{label: "Registration Date", key: "registration_date"},
		{label: "Created At", key: "created_at", stamp: true},
	},
	KindScreening: {
		{label: "Screening Date", key: "screening_date"},
		{label: "Screening Type", key: "screening_type"},
		{label: "Weight", key: "weight"},
		{label: "Height", key: "height"},
		{label: "Health Issues", key: "health_issues"},
		{label: "Referral Status", key: "referral_status"},
		{label: "Created At", key: "created_at", stamp: true},
	},
	KindDoseLog: {
		{label: "Dose Date", key: "dose_date"},
		{label: "Dose Amount", key: "dose_amount"},
		{label: "Dose Time", key: "dose_time"},
		{label: "Administered By", key: "administered_by"},
		{label: "Child Reaction", key: "child_reaction"},
		{label: "Next Dose Date", key: "next_dose_date"},
		{label: "Created At", key: "created_at", stamp: true},
	},
}

// Labels returns the column headers for kind in output order.
func Labels(kind Kind) []string {
	cols := columns[kind]
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.label
	}
	return out
}

type Cell struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row keeps the column order of its kind.
type Row []Cell

func (r Row) Get(label string) (string, bool) {
	for _, c := range r {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

// Options control how timestamps are rendered.
type Options struct {
	Location *time.Location
	Locale   language.Tag
}

func DefaultOptions() Options {
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		loc = time.UTC
	}
	return Options{Location: loc, Locale: language.MustParse("ne-NP")}
}

var (
	supported = []language.Tag{language.Nepali, language.AmericanEnglish, language.BritishEnglish}
	matcher   = language.NewMatcher(supported)
	layouts   = map[language.Tag]string{
		language.Nepali:          "2006-01-02 15:04:05",
		language.AmericanEnglish: "1/2/2006, 3:04:05 PM",
		language.BritishEnglish:  "02/01/2006, 15:04:05",
	}
)

// stampLayout picks the timestamp layout closest to tag.
func stampLayout(tag language.Tag) string {
	_, i, _ := matcher.Match(tag)
	return layouts[supported[i]]
}

// Project maps records onto the fixed columns of kind. Missing or nil
// fields become "" and timestamps are rendered with opts at this point.
func Project(records []Record, kind Kind, opts Options) []Row {
	cols := columns[kind]
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	layout := stampLayout(opts.Locale)

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		var fields map[string]interface{}
		if rec != nil {
			fields = rec.Fields()
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[i] = Cell{Label: c.label, Value: cellValue(fields[c.key], c.stamp, opts.Location, layout)}
		}
		rows = append(rows, row)
	}
	return rows
}

func cellValue(v interface{}, stamp bool, loc *time.Location, layout string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.In(loc).Format(layout)
	case string:
		if stamp {
			if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return ts.In(loc).Format(layout)
			}
		}
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []string:
		return strings.Join(t, ", ")
	case []interface{}:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = cellValue(p, false, loc, layout)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
