package form

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormData maps question ids to values. Text-like questions hold strings,
// number questions a float64 (or a numeric string as typed), checkbox
// questions a []string.
type FormData map[string]any

// Clone returns a shallow copy with checkbox slices copied.
func (d FormData) Clone() FormData {
	out := make(FormData, len(d))
	for k, v := range d {
		switch s := v.(type) {
		case []string:
			out[k] = append([]string(nil), s...)
		case []any:
			out[k] = append([]any(nil), s...)
		default:
			out[k] = v
		}
	}
	return out
}

// String returns the value for key as text, or "" when absent.
func (d FormData) String(key string) string {
	v, ok := d[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

// Strings returns the value for key as a string slice. A single string is
// returned as a one-element slice.
func (d FormData) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Float returns the value for key as a number.
func (d FormData) Float(key string) (float64, bool) {
	v, ok := d[key]
	if !ok || isBlank(v) {
		return 0, false
	}
	return toFloat(v)
}

// isBlank treats nil, whitespace-only strings and empty lists as absent.
// Numeric zero is a value.
func isBlank(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case []string:
		return len(s) == 0
	case []any:
		return len(s) == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
