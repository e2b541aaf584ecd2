package form

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"
)

// Result is the outcome of validating one step. Errors maps question ids to
// a bilingual message and is never nil.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// Validate checks every question of step against data. Each field is checked
// in the order required, pattern, number bounds, text length, and only the
// first failing rule is reported for that field. All fields are checked.
//
// Validate does not look at conditional visibility; use ValidateVisible when
// hidden questions must not block the step.
func Validate(step FormStep, data FormData) Result {
	return validateQuestions(step.Questions, data)
}

// ValidateVisible validates only the questions currently visible for data.
func ValidateVisible(step FormStep, data FormData) Result {
	return validateQuestions(VisibleQuestions(step, data), data)
}

func validateQuestions(questions []Question, data FormData) Result {
	errs := make(map[string]string)
	for _, q := range questions {
		if msg := checkField(q, data[q.ID]); msg != "" {
			errs[q.ID] = msg
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func checkField(q Question, value any) string {
	if isBlank(value) {
		if q.Required {
			return fmt.Sprintf("%s आवश्यक छ | %s is required", q.Label, q.EnglishLabel())
		}
		return ""
	}

	rules := q.Validation
	if rules == nil {
		rules = &Validation{}
	}
	raw := stringify(value)

	if rules.Pattern != "" {
		if re, err := compilePattern(rules.Pattern); err == nil && !re.MatchString(raw) {
			if rules.Message != "" {
				return rules.Message
			}
			return "गलत ढाँचा | Invalid format"
		}
	}

	switch q.Type {
	case TypeNumber:
		// Min and Max bound the numeric value here.
		n, ok := toFloat(value)
		if !ok {
			return "मान्य संख्या प्रविष्ट गर्नुहोस् | Enter a valid number"
		}
		if rules.Min != nil && n < *rules.Min {
			return fmt.Sprintf("न्यूनतम मान %s हुनुपर्छ | Minimum value is %s", num(*rules.Min), num(*rules.Min))
		}
		if rules.Max != nil && n > *rules.Max {
			return fmt.Sprintf("अधिकतम मान %s हुनुपर्छ | Maximum value is %s", num(*rules.Max), num(*rules.Max))
		}
	case TypeText:
		// For text the same Min and Max bound the length in characters, not
		// bytes. Textarea lengths are not enforced.
		length := float64(utf8.RuneCountInString(raw))
		if rules.Min != nil && length < *rules.Min {
			return fmt.Sprintf("कम्तिमा %s अक्षर चाहिन्छ | At least %s characters required", num(*rules.Min), num(*rules.Min))
		}
		if rules.Max != nil && length > *rules.Max {
			return fmt.Sprintf("अधिकतम %s अक्षर मात्र अनुमति छ | At most %s characters allowed", num(*rules.Max), num(*rules.Max))
		}
	}
	return ""
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var patternCache sync.Map // string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patternCache.Store(p, re)
	return re, nil
}
