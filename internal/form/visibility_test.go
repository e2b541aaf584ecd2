package form

import (
	"testing"
)

func adverseStep() FormStep {
	return FormStep{ID: "step4", Questions: []Question{
		{ID: "child_reaction", Label: "प्रतिक्रिया", Type: TypeRadio, Required: true,
			Options: []Option{{Value: "normal", Label: "सामान्य"}, {Value: "adverse", Label: "कुनै प्रतिक्रिया"}}},
		{ID: "adverse_reaction_details", Label: "विवरण", Type: TypeTextarea, Required: true,
			Conditional: &Conditional{DependsOn: "child_reaction", Value: "adverse"}},
	}}
}

func TestIsVisible_NoConditional(t *testing.T) {
	if !IsVisible(Question{ID: "a"}, nil) {
		t.Error("question without conditional must be visible")
	}
}

func TestIsVisible_Operators(t *testing.T) {
	tests := []struct {
		name string
		op   Operator
		want any
		data FormData
		vis  bool
	}{
		{"equals match", OpEquals, "adverse", FormData{"x": "adverse"}, true},
		{"equals default operator", "", "adverse", FormData{"x": "adverse"}, true},
		{"equals mismatch", OpEquals, "adverse", FormData{"x": "normal"}, false},
		{"equals absent", OpEquals, "adverse", FormData{}, false},
		{"equals blank", OpEquals, "adverse", FormData{"x": " "}, false},
		{"not equals match", OpNotEquals, "adverse", FormData{"x": "normal"}, true},
		{"not equals same", OpNotEquals, "adverse", FormData{"x": "adverse"}, false},
		{"not equals absent", OpNotEquals, "adverse", FormData{}, true},
		{"greater than", OpGreaterThan, 12, FormData{"x": float64(24)}, true},
		{"greater than equal", OpGreaterThan, 12, FormData{"x": "12"}, false},
		{"greater than absent", OpGreaterThan, 12, FormData{}, false},
		{"greater than non numeric", OpGreaterThan, 12, FormData{"x": "many"}, false},
		{"less than", OpLessThan, 12.5, FormData{"x": 8}, true},
		{"less than not", OpLessThan, 12.5, FormData{"x": 13}, false},
		{"numeric equality across types", OpEquals, 2, FormData{"x": "2"}, true},
		{"checkbox contains", OpEquals, "fever", FormData{"x": []string{"cold", "fever"}}, true},
		{"checkbox lacks", OpEquals, "fever", FormData{"x": []any{"cold"}}, false},
		{"unknown operator", Operator("between"), 1, FormData{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q", Conditional: &Conditional{DependsOn: "x", Value: tt.want, Operator: tt.op}}
			if got := IsVisible(q, tt.data); got != tt.vis {
				t.Errorf("IsVisible = %v, want %v", got, tt.vis)
			}
		})
	}
}

func TestValidateVisible_HiddenRequiredDoesNotBlock(t *testing.T) {
	step := adverseStep()
	data := FormData{"child_reaction": "normal"}

	if res := ValidateVisible(step, data); !res.IsValid {
		t.Errorf("hidden required question must not block the step, got %v", res.Errors)
	}
	// The unfiltered evaluator would reject the same data.
	if res := Validate(step, data); res.IsValid {
		t.Error("expected plain Validate to report the hidden required field")
	}
}

func TestValidateVisible_ShownQuestionIsValidated(t *testing.T) {
	step := adverseStep()
	res := ValidateVisible(step, FormData{"child_reaction": "adverse"})
	if _, ok := res.Errors["adverse_reaction_details"]; !ok {
		t.Errorf("expected details to be required when reaction is adverse, got %v", res.Errors)
	}
	res = ValidateVisible(step, FormData{"child_reaction": "adverse", "adverse_reaction_details": "ज्वरो आयो"})
	if !res.IsValid {
		t.Errorf("expected valid, got %v", res.Errors)
	}
}

func TestVisibleQuestions(t *testing.T) {
	step := adverseStep()
	if got := VisibleQuestions(step, FormData{"child_reaction": "normal"}); len(got) != 1 || got[0].ID != "child_reaction" {
		t.Errorf("expected only child_reaction visible, got %v", got)
	}
	if got := VisibleQuestions(step, FormData{"child_reaction": "adverse"}); len(got) != 2 {
		t.Errorf("expected both questions visible, got %d", len(got))
	}
	if ids := HiddenQuestionIDs(step, FormData{}); len(ids) != 1 || ids[0] != "adverse_reaction_details" {
		t.Errorf("unexpected hidden ids %v", ids)
	}
}
