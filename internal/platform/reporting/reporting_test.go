package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type fakeStore struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	sql    string
	args   []interface{}
	rows   []map[string]interface{}
}

func (f *fakeStore) Count(_ context.Context, table string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[table], nil
}

func (f *fakeStore) Query(_ context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sql, f.args = sql, args
	return f.rows, nil
}

func TestPredefinedMeasures(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range PredefinedMeasures {
		if seen[m.ID] {
			t.Errorf("duplicate measure id %s", m.ID)
		}
		seen[m.ID] = true
		if m.SQL == "" || m.Name == "" || m.Description == "" {
			t.Errorf("measure %s is incomplete", m.ID)
		}
		for i := range m.Parameters {
			if !strings.Contains(m.SQL, "$"+string(rune('1'+i))) {
				t.Errorf("measure %s does not use parameter %d", m.ID, i+1)
			}
		}
	}
	for _, id := range []string{"registrations-by-district", "registrations-by-gender", "doses-by-amount", "screenings-by-referral-status", "registrations-by-age-band"} {
		if FindMeasure(id) == nil {
			t.Errorf("missing measure %s", id)
		}
	}
	if FindMeasure("nonexistent") != nil {
		t.Error("expected nil for nonexistent measure")
	}
}

func TestService_Statistics(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"registrations": 12, "screenings": 5, "dose_logs": 30}}
	st, err := NewService(store).Statistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := Statistics{TotalRegistrations: 12, TotalScreenings: 5, TotalDoseLogs: 30}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("statistics (-want +got):\n%s", diff)
	}

	store.err = errors.New("db down")
	if _, err := NewService(store).Statistics(context.Background()); !errors.Is(err, store.err) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestService_Evaluate(t *testing.T) {
	store := &fakeStore{rows: []map[string]interface{}{{"district": "ललितपुर", "total": int64(4)}}}
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC) }

	report, err := svc.Evaluate(context.Background(), "registrations-by-district", map[string]string{"district": "ललितपुर", "ignored": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{"ललितपुर"}, store.args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"district": "ललितपुर"}, report.Parameters); diff != "" {
		t.Errorf("parameters (-want +got):\n%s", diff)
	}
	if len(report.Results) != 1 || report.MeasureName != "Registrations by District" {
		t.Errorf("unexpected report %+v", report)
	}

	store.rows = nil
	report, _ = svc.Evaluate(context.Background(), "doses-by-amount", nil)
	if store.args[0] != nil {
		t.Errorf("absent parameter must bind NULL, got %v", store.args[0])
	}
	if report.Results == nil {
		t.Error("results must encode as an empty list")
	}

	if _, err := svc.Evaluate(context.Background(), "nope", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHandler_Statistics(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"registrations": 2}}
	h := NewHandler(NewService(store))
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.Statistics(e.NewContext(httptest.NewRequest(http.MethodGet, "/statistics", nil), rec)); err != nil {
		t.Fatal(err)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Data["totalRegistrations"] != 2 || body.Data["totalDoseLogs"] != 0 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandler_EvaluateMeasure(t *testing.T) {
	h := NewHandler(NewService(&fakeStore{}))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?district=Kaski", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("registrations-by-gender")
	if err := h.EvaluateMeasure(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `"district":"Kaski"`) {
		t.Errorf("parameters not echoed: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("unknown")
	var he *echo.HTTPError
	if err := h.EvaluateMeasure(c); !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListMeasures_HidesSQL(t *testing.T) {
	h := NewHandler(NewService(&fakeStore{}))
	rec := httptest.NewRecorder()
	if err := h.ListMeasures(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rec.Body.String(), "SELECT") {
		t.Error("measure SQL must not be exposed")
	}
}
