package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swarnabindu/prashan/internal/dosage"
)

var (
	ErrIneligible      = errors.New("स्वर्णबिन्दु ६ महिनादेखि ५ वर्षसम्मका बालबालिकालाई मात्र | child must be between 6 and 60 months old")
	ErrContraindicated = errors.New("स्वास्थ्य अवस्थाका कारण अहिले स्वर्णबिन्दु दिन मिल्दैन | dose cannot be given due to current health conditions")
	ErrNotLastStep     = errors.New("form: submit is only allowed on the last step")
	ErrAlreadyFirst    = errors.New("form: already on the first step")
	ErrEmptySchema     = errors.New("form: schema has no steps")
)

// State is one in-progress pass through a Schema. Every transition returns a
// new State; the receiver is never modified.
type State struct {
	schema    Schema
	index     int
	draft     FormData
	record    FormData
	derived   FormData
	errors    map[string]string
	submitted bool
	now       func() time.Time
}

// NewState starts a form at the first step. now supplies the reference date
// for age calculation and may be nil.
func NewState(schema Schema, now func() time.Time) (State, error) {
	if len(schema.Steps) == 0 {
		return State{}, ErrEmptySchema
	}
	if now == nil {
		now = time.Now
	}
	s := State{
		schema:  schema,
		record:  FormData{},
		derived: FormData{},
		errors:  map[string]string{},
		now:     now,
	}
	s.draft = s.enterStep(0)
	return s, nil
}

func (s State) Step() FormStep    { return s.schema.Steps[s.index] }
func (s State) StepIndex() int    { return s.index }
func (s State) IsFirst() bool     { return s.index == 0 }
func (s State) IsLast() bool      { return s.index == len(s.schema.Steps)-1 }
func (s State) Submitted() bool   { return s.submitted }
func (s State) Draft() FormData   { return s.draft.Clone() }
func (s State) Record() FormData  { return s.record.Clone() }
func (s State) Derived() FormData { return s.derived.Clone() }

func (s State) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

func (s State) clone() State {
	n := s
	n.draft = s.draft.Clone()
	n.record = s.record.Clone()
	n.derived = s.derived.Clone()
	n.errors = s.Errors()
	return n
}

// SetField records an edit on the current step. Changing the birth date
// recomputes the derived fields before SetField returns, so the next
// validation never sees a stale age or dose.
func (s State) SetField(id string, value any) State {
	n := s.clone()
	n.draft[id] = value
	delete(n.errors, id)
	if id == FieldBirthDate {
		n.recomputeDerived()
	}
	return n
}

func (s *State) recomputeDerived() {
	d := dosage.Derive(s.draft.String(FieldBirthDate), s.now())

	s.derived = FormData{}
	if d.Known {
		s.derived[FieldAge] = d.Age
		s.derived[FieldAgeMonths] = d.Months
	}
	if d.Dose != dosage.DoseNone {
		s.derived[FieldDoseAmount] = string(d.Dose)
	}

	if _, onStep := s.Step().Question(FieldDoseAmount); onStep {
		setDose(s.draft, d.Dose)
	}
	// A dose committed under the old birth date is replaced, otherwise
	// enterStep would restore it over the new recommendation.
	if _, committed := s.record[FieldDoseAmount]; committed {
		setDose(s.record, d.Dose)
	}
}

func setDose(data FormData, dose dosage.Dose) {
	if dose != dosage.DoseNone {
		data[FieldDoseAmount] = string(dose)
	} else {
		delete(data, FieldDoseAmount)
	}
}

// Next validates the visible questions of the current step. When they pass,
// the step's values are merged into the record and the form advances. On
// the last step Next only validates.
func (s State) Next() (State, Result) {
	n := s.clone()
	step := n.Step()
	res := ValidateVisible(step, n.draft)
	n.errors = res.Errors
	if !res.IsValid {
		return n, res
	}
	n.commit(step)
	if !n.IsLast() {
		n.index++
		n.draft = n.enterStep(n.index)
	}
	return n, res
}

// Back returns to the previous step. Uncommitted edits on the current step
// are discarded.
func (s State) Back() (State, error) {
	if s.IsFirst() {
		return s, ErrAlreadyFirst
	}
	n := s.clone()
	n.index--
	n.errors = map[string]string{}
	n.draft = n.enterStep(n.index)
	return n, nil
}

// Submit validates the last step, merges it into the record and applies the
// eligibility and contraindication rules. Field errors come back in Result.
// An ineligible age is reported as ErrIneligible even when fields are still
// invalid; ErrContraindicated is only checked once every field passes.
func (s State) Submit() (State, Result, error) {
	if !s.IsLast() {
		return s, Result{Errors: map[string]string{}}, ErrNotLastStep
	}
	n, res := s.Next()
	if err := checkEligibility(n.record, n.now()); err != nil {
		return n, res, err
	}
	if !res.IsValid {
		return n, res, nil
	}
	if err := checkContraindications(n.record); err != nil {
		return n, res, err
	}
	n.submitted = true
	return n, res, nil
}

// commit merges the visible answers of step into the record and drops
// answers to questions that are now hidden.
func (s *State) commit(step FormStep) {
	for _, q := range step.Questions {
		if !IsVisible(q, s.draft) {
			delete(s.record, q.ID)
			continue
		}
		if v, ok := s.draft[q.ID]; ok {
			s.record[q.ID] = v
		}
	}
	for _, k := range []string{FieldAge, FieldAgeMonths} {
		if v, ok := s.derived[k]; ok {
			s.record[k] = v
		} else {
			delete(s.record, k)
		}
	}
}

// enterStep builds the draft for step i from committed answers, step
// defaults and the derived dose.
func (s *State) enterStep(i int) FormData {
	step := s.schema.Steps[i]
	draft := DefaultValues(step)
	for _, q := range step.Questions {
		if v, ok := s.record[q.ID]; ok {
			draft[q.ID] = v
		}
	}
	if _, ok := step.Question(FieldDoseAmount); ok && isBlank(draft[FieldDoseAmount]) {
		if dose, ok := s.derived[FieldDoseAmount]; ok {
			draft[FieldDoseAmount] = dose
		}
	}
	return draft
}

// DefaultValues returns the empty starting values for a step. Select and
// radio questions get no default so an unanswered choice stays blank.
func DefaultValues(step FormStep) FormData {
	out := FormData{}
	for _, q := range step.Questions {
		switch q.Type {
		case TypeSelect, TypeRadio:
		case TypeCheckbox:
			out[q.ID] = []string{}
		default:
			out[q.ID] = ""
		}
	}
	return out
}

// ApplyDerived returns a copy of record with age, child_age_months and, when
// missing, dose_amount computed from birth_date at ref.
func ApplyDerived(record FormData, ref time.Time) FormData {
	out := record.Clone()
	d := dosage.Derive(out.String(FieldBirthDate), ref)
	if !d.Known {
		delete(out, FieldAge)
		delete(out, FieldAgeMonths)
		return out
	}
	out[FieldAge] = d.Age
	out[FieldAgeMonths] = d.Months
	if isBlank(out[FieldDoseAmount]) && d.Dose != dosage.DoseNone {
		out[FieldDoseAmount] = string(d.Dose)
	}
	return out
}

// ValidateRecord checks a complete record against every step of schema,
// honoring visibility, then applies the same eligibility and
// contraindication rules as State.Submit.
func ValidateRecord(schema Schema, record FormData, ref time.Time) (Result, error) {
	errs := make(map[string]string)
	for _, step := range schema.Steps {
		for id, msg := range ValidateVisible(step, record).Errors {
			if _, seen := errs[id]; !seen {
				errs[id] = msg
			}
		}
	}
	res := Result{IsValid: len(errs) == 0, Errors: errs}
	if _, bad := errs[FieldBirthDate]; !bad {
		if err := checkEligibility(record, ref); err != nil {
			return res, err
		}
	}
	if !res.IsValid {
		return res, nil
	}
	return res, checkContraindications(record)
}

func checkEligibility(record FormData, ref time.Time) error {
	months, ok := dosage.AgeInMonths(record.String(FieldBirthDate), ref)
	if !ok || !dosage.Eligible(months) {
		return ErrIneligible
	}
	return nil
}

func checkContraindications(record FormData) error {
	if found := dosage.Contraindications(record.Strings(FieldHealthConditions)); len(found) > 0 {
		return fmt.Errorf("%w: %s", ErrContraindicated, strings.Join(found, ", "))
	}
	return nil
}
