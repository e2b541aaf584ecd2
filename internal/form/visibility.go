package form

// IsVisible reports whether q is shown for data. A question without a
// conditional is always visible. A dependency that is absent or blank never
// matches equals, greater_than or less_than and always matches not_equals.
func IsVisible(q Question, data FormData) bool {
	c := q.Conditional
	if c == nil {
		return true
	}
	v, ok := data[c.DependsOn]
	present := ok && !isBlank(v)

	switch c.Operator {
	case "", OpEquals:
		return present && valuesEqual(v, c.Value)
	case OpNotEquals:
		return !present || !valuesEqual(v, c.Value)
	case OpGreaterThan:
		a, b, ok := numericPair(v, c.Value)
		return present && ok && a > b
	case OpLessThan:
		a, b, ok := numericPair(v, c.Value)
		return present && ok && a < b
	default:
		return true
	}
}

// VisibleQuestions returns the questions of step that are visible for data,
// in step order.
func VisibleQuestions(step FormStep, data FormData) []Question {
	out := make([]Question, 0, len(step.Questions))
	for _, q := range step.Questions {
		if IsVisible(q, data) {
			out = append(out, q)
		}
	}
	return out
}

// HiddenQuestionIDs lists the questions of step hidden for data.
func HiddenQuestionIDs(step FormStep, data FormData) []string {
	var ids []string
	for _, q := range step.Questions {
		if !IsVisible(q, data) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// valuesEqual compares numerically when both sides are numbers, so a YAML
// int 2 equals a typed "2". A checkbox value equals a scalar it contains.
func valuesEqual(actual, want any) bool {
	switch list := actual.(type) {
	case []string:
		for _, item := range list {
			if valuesEqual(item, want) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range list {
			if valuesEqual(item, want) {
				return true
			}
		}
		return false
	}
	if a, b, ok := numericPair(actual, want); ok {
		return a == b
	}
	return stringify(actual) == stringify(want)
}

func numericPair(a, b any) (float64, float64, bool) {
	x, ok := toFloat(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := toFloat(b)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}
