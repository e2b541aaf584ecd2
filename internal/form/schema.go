// Package form implements the question-schema driven intake form: schema
// types, the per-step validator, conditional visibility, render intents and
// the immutable multi-step form state.
package form

import "time"

// QuestionType is the closed set of input kinds a Question can declare.
type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeNumber   QuestionType = "number"
	TypeDate     QuestionType = "date"
	TypeSelect   QuestionType = "select"
	TypeRadio    QuestionType = "radio"
	TypeCheckbox QuestionType = "checkbox"
	TypeTextarea QuestionType = "textarea"
)

// QuestionTypes lists every supported type in declaration order.
var QuestionTypes = []QuestionType{
	TypeText, TypeNumber, TypeDate, TypeSelect, TypeRadio, TypeCheckbox, TypeTextarea,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type picks from a fixed option list.
func (t QuestionType) HasOptions() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

func (o Operator) Valid() bool {
	switch o {
	case "", OpEquals, OpNotEquals, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

type Option struct {
	Value   string `json:"value" yaml:"value"`
	Label   string `json:"label" yaml:"label"`
	LabelEn string `json:"labelEn,omitempty" yaml:"labelEn,omitempty"`
}

// Validation holds the optional per-question rules. Min and Max are numeric
// bounds for number questions and character-count bounds for text questions.
type Validation struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Conditional shows a question only when another question's value satisfies
// Operator against Value. An empty Operator means equals.
type Conditional struct {
	DependsOn string   `json:"dependsOn" yaml:"dependsOn"`
	Value     any      `json:"value" yaml:"value"`
	Operator  Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
}

type Question struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	LabelEn     string       `json:"labelEn,omitempty" yaml:"labelEn,omitempty"`
	Type        QuestionType `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Validation  *Validation  `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// EnglishLabel falls back to the Nepali label when no English one is set.
func (q Question) EnglishLabel() string {
	if q.LabelEn != "" {
		return q.LabelEn
	}
	return q.Label
}

// Bilingual is a Nepali/English text pair.
type Bilingual struct {
	Nepali  string `json:"nepali" yaml:"nepali"`
	English string `json:"english" yaml:"english"`
}

type FormStep struct {
	ID          string     `json:"id" yaml:"id"`
	Title       Bilingual  `json:"title" yaml:"title"`
	Description Bilingual  `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Question returns the question with the given id.
func (s FormStep) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Schema is the ordered intake flow. Step order is navigation order.
type Schema struct {
	Version     int        `json:"version" yaml:"version"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
	Description Bilingual  `json:"description" yaml:"description"`
	Steps       []FormStep `json:"steps" yaml:"steps"`
}

// StepIndex returns the position of the step with the given id, or -1.
func (s Schema) StepIndex(id string) int {
	for i, st := range s.Steps {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s Schema) Step(id string) (FormStep, bool) {
	if i := s.StepIndex(id); i >= 0 {
		return s.Steps[i], true
	}
	return FormStep{}, false
}

// Clone returns a deep copy so callers can mutate steps without touching a
// schema that is shared through the Registry.
func (s Schema) Clone() Schema {
	out := s
	out.Steps = make([]FormStep, len(s.Steps))
	for i, st := range s.Steps {
		out.Steps[i] = st
		out.Steps[i].Questions = make([]Question, len(st.Questions))
		for j, q := range st.Questions {
			cq := q
			if q.Options != nil {
				cq.Options = append([]Option(nil), q.Options...)
			}
			if q.Validation != nil {
				v := *q.Validation
				cq.Validation = &v
			}
			if q.Conditional != nil {
				c := *q.Conditional
				cq.Conditional = &c
			}
			out.Steps[i].Questions[j] = cq
		}
	}
	return out
}

// Field ids the engine derives values for or inspects directly.
const (
	FieldChildName        = "child_name"
	FieldBirthDate        = "birth_date"
	FieldGender           = "gender"
	FieldContactNumber    = "contact_number"
	FieldAge              = "age"
	FieldAgeMonths        = "child_age_months"
	FieldDoseAmount       = "dose_amount"
	FieldHealthConditions = "health_conditions"
	FieldChildReaction    = "child_reaction"
)
