package form

import "time"

// Widget names the input control a client should draw for a question.
type Widget string

const (
	WidgetTextInput   Widget = "text-input"
	WidgetNumberInput Widget = "number-input"
	WidgetDatePicker  Widget = "date-picker"
	WidgetDropdown    Widget = "dropdown"
	WidgetRadioGroup  Widget = "radio-group"
	WidgetCheckboxes  Widget = "checkbox-group"
	WidgetTextArea    Widget = "textarea"
	WidgetUnsupported Widget = "unsupported"
)

type RenderOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	LabelEn  string `json:"labelEn,omitempty"`
	Selected bool   `json:"selected"`
}

// RenderIntent is everything a client needs to draw one question. It carries
// no behavior; clients map Widget to their own controls.
type RenderIntent struct {
	QuestionID  string         `json:"questionId"`
	Widget      Widget         `json:"widget"`
	Label       string         `json:"label"`
	LabelEn     string         `json:"labelEn,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Required    bool           `json:"required"`
	Visible     bool           `json:"visible"`
	Value       any            `json:"value"`
	Options     []RenderOption `json:"options,omitempty"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	MinLength   *int           `json:"minLength,omitempty"`
	MaxLength   *int           `json:"maxLength,omitempty"`
	Pattern     string         `json:"pattern,omitempty"`
	InputMode   string         `json:"inputMode,omitempty"`
	MaxDate     string         `json:"maxDate,omitempty"`
	Rows        int            `json:"rows,omitempty"`
	Multiple    bool           `json:"multiple,omitempty"`
}

// Render maps a question and its current value to a RenderIntent. All
// per-type behavior lives in the switch below; a new QuestionType needs a
// new case here and nowhere else.
func Render(q Question, value any, data FormData, ref time.Time) RenderIntent {
	ri := RenderIntent{
		QuestionID:  q.ID,
		Label:       q.Label,
		LabelEn:     q.LabelEn,
		Placeholder: q.Placeholder,
		Required:    q.Required,
		Visible:     IsVisible(q, data),
		Value:       value,
	}
	rules := q.Validation
	if rules == nil {
		rules = &Validation{}
	}

	switch q.Type {
	case TypeText:
		ri.Widget = WidgetTextInput
		ri.Value = stringify(value)
		ri.Pattern = rules.Pattern
		ri.MinLength = intBound(rules.Min)
		ri.MaxLength = intBound(rules.Max)
	case TypeNumber:
		ri.Widget = WidgetNumberInput
		ri.Min = rules.Min
		ri.Max = rules.Max
		ri.InputMode = "decimal"
		if n, ok := toFloat(value); ok && !isBlank(value) {
			ri.Value = n
		} else {
			ri.Value = nil
		}
	case TypeDate:
		ri.Widget = WidgetDatePicker
		ri.Value = stringify(value)
		ri.MaxDate = ref.Format("2006-01-02")
	case TypeSelect:
		ri.Widget = WidgetDropdown
		ri.Value = stringify(value)
		ri.Options = renderOptions(q.Options, []string{stringify(value)})
	case TypeRadio:
		ri.Widget = WidgetRadioGroup
		ri.Value = stringify(value)
		ri.Options = renderOptions(q.Options, []string{stringify(value)})
	case TypeCheckbox:
		ri.Widget = WidgetCheckboxes
		ri.Multiple = true
		selected := FormData{q.ID: value}.Strings(q.ID)
		if selected == nil {
			selected = []string{}
		}
		ri.Value = selected
		ri.Options = renderOptions(q.Options, selected)
	case TypeTextarea:
		ri.Widget = WidgetTextArea
		ri.Value = stringify(value)
		ri.Rows = 3
	default:
		ri.Widget = WidgetUnsupported
	}
	return ri
}

// RenderStep renders the visible questions of step using the values in data.
func RenderStep(step FormStep, data FormData, ref time.Time) []RenderIntent {
	visible := VisibleQuestions(step, data)
	out := make([]RenderIntent, 0, len(visible))
	for _, q := range visible {
		out = append(out, Render(q, data[q.ID], data, ref))
	}
	return out
}

func renderOptions(opts []Option, selected []string) []RenderOption {
	out := make([]RenderOption, len(opts))
	for i, o := range opts {
		out[i] = RenderOption{Value: o.Value, Label: o.Label, LabelEn: o.LabelEn}
		for _, s := range selected {
			if s == o.Value {
				out[i].Selected = true
				break
			}
		}
	}
	return out
}

func intBound(f *float64) *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
