package form

import (
	"fmt"
	"strings"
)

type schemaErrors []string

func (e schemaErrors) Error() string {
	return "form.schema: " + strings.Join([]string(e), ", ")
}

// ValidateSchema checks the structure of a schema and reports every problem
// it finds rather than stopping at the first.
func ValidateSchema(s Schema) error {
	var errs schemaErrors
	if len(s.Steps) == 0 {
		errs = append(errs, "schema contains no steps")
	}
	stepIDs := make(map[string]bool, len(s.Steps))
	for si, step := range s.Steps {
		if step.ID == "" {
			errs = append(errs, fmt.Sprintf("step %d missing id", si))
		} else if stepIDs[step.ID] {
			errs = append(errs, fmt.Sprintf("duplicate step id %q", step.ID))
		}
		stepIDs[step.ID] = true
		errs = append(errs, checkStep(step, si)...)
	}
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// ValidateStep checks a single step in isolation.
func ValidateStep(step FormStep) error {
	var errs schemaErrors
	if step.ID == "" {
		errs = append(errs, "step missing id")
	}
	errs = append(errs, checkStep(step, 0)...)
	if len(errs) != 0 {
		return errs
	}
	return nil
}

func checkStep(step FormStep, si int) schemaErrors {
	var errs schemaErrors
	if len(step.Questions) == 0 {
		errs = append(errs, fmt.Sprintf("step %q has no questions", step.ID))
	}
	ids := make(map[string]bool, len(step.Questions))
	for qi, q := range step.Questions {
		where := fmt.Sprintf("question %d in step %q", qi, step.ID)
		if q.ID == "" {
			errs = append(errs, where+" missing id")
		} else if ids[q.ID] {
			errs = append(errs, fmt.Sprintf("%s duplicates id %q", where, q.ID))
		}
		ids[q.ID] = true
		if q.Label == "" {
			errs = append(errs, where+" missing label")
		}
		if !q.Type.Valid() {
			errs = append(errs, fmt.Sprintf("%s has unknown type %q", where, q.Type))
		}
		if q.Type.HasOptions() && len(q.Options) == 0 {
			errs = append(errs, fmt.Sprintf("%s of type %s has no options", where, q.Type))
		}
		if v := q.Validation; v != nil {
			if v.Pattern != "" {
				if _, err := compilePattern(v.Pattern); err != nil {
					errs = append(errs, fmt.Sprintf("%s has invalid pattern: %v", where, err))
				}
			}
			if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
				errs = append(errs, fmt.Sprintf("%s has min greater than max", where))
			}
		}
	}
	// Dependencies may point at any question of the step, including later ones.
	for qi, q := range step.Questions {
		c := q.Conditional
		if c == nil {
			continue
		}
		where := fmt.Sprintf("question %d in step %q", qi, step.ID)
		switch {
		case c.DependsOn == "":
			errs = append(errs, where+" missing dependsOn in condition")
		case c.DependsOn == q.ID:
			errs = append(errs, where+" depends on itself")
		case !ids[c.DependsOn]:
			errs = append(errs, fmt.Sprintf("%s depends on unknown question %q", where, c.DependsOn))
		}
		if !c.Operator.Valid() {
			errs = append(errs, fmt.Sprintf("%s unknown condition op %q", where, c.Operator))
		}
		if (c.Operator == OpGreaterThan || c.Operator == OpLessThan) && !isNumber(c.Value) {
			errs = append(errs, fmt.Sprintf("%s compares %s against a non-numeric value", where, c.Operator))
		}
	}
	return errs
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}
