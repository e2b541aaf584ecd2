package form

import (
	"testing"
	"time"
)

func TestRender_EveryTypeHasWidget(t *testing.T) {
	ref := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	for _, typ := range QuestionTypes {
		q := Question{ID: "q", Label: "Q", Type: typ, Options: []Option{{Value: "a", Label: "A"}}}
		ri := Render(q, nil, FormData{}, ref)
		if ri.Widget == "" || ri.Widget == WidgetUnsupported {
			t.Errorf("type %s rendered as %q", typ, ri.Widget)
		}
	}
	if ri := Render(Question{ID: "q", Type: "signature"}, nil, nil, ref); ri.Widget != WidgetUnsupported {
		t.Errorf("expected unsupported widget, got %q", ri.Widget)
	}
}

func TestRender_Select(t *testing.T) {
	q := Question{ID: "dose_amount", Label: "मात्रा", Type: TypeSelect, Options: []Option{
		{Value: "1", Label: "1"}, {Value: "2", Label: "2"}, {Value: "4", Label: "4"},
	}}
	ri := Render(q, "2", FormData{"dose_amount": "2"}, time.Now())
	if ri.Widget != WidgetDropdown {
		t.Fatalf("expected dropdown, got %s", ri.Widget)
	}
	for _, o := range ri.Options {
		if o.Selected != (o.Value == "2") {
			t.Errorf("option %s selected=%v", o.Value, o.Selected)
		}
	}
}

func TestRender_CheckboxAndNumber(t *testing.T) {
	cb := Question{ID: "health_conditions", Label: "अवस्था", Type: TypeCheckbox, Options: []Option{
		{Value: "fever", Label: "ज्वरो"}, {Value: "cold", Label: "रुघा"},
	}}
	ri := Render(cb, []any{"cold"}, nil, time.Now())
	if !ri.Multiple || ri.Options[0].Selected || !ri.Options[1].Selected {
		t.Errorf("unexpected checkbox intent %+v", ri)
	}

	num := Question{ID: "weight", Label: "तौल", Type: TypeNumber, Validation: &Validation{Min: f(0.5), Max: f(50)}}
	ri = Render(num, "9.5", nil, time.Now())
	if ri.Value != 9.5 || *ri.Min != 0.5 || *ri.Max != 50 {
		t.Errorf("unexpected number intent %+v", ri)
	}
	if ri = Render(num, "", nil, time.Now()); ri.Value != nil {
		t.Errorf("expected nil value for blank number, got %v", ri.Value)
	}
}

func TestRender_DateCapsAtReference(t *testing.T) {
	ref := time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)
	ri := Render(Question{ID: "birth_date", Type: TypeDate}, "2025-01-01", nil, ref)
	if ri.MaxDate != "2026-10-18" {
		t.Errorf("expected max date 2026-10-18, got %s", ri.MaxDate)
	}
}

func TestRenderStep_SkipsHidden(t *testing.T) {
	step := adverseStep()
	out := RenderStep(step, FormData{"child_reaction": "normal"}, time.Now())
	if len(out) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(out))
	}
	out = RenderStep(step, FormData{"child_reaction": "adverse"}, time.Now())
	if len(out) != 2 || !out[1].Visible {
		t.Fatalf("expected 2 visible intents, got %+v", out)
	}
}
