package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeMigrations struct {
	statuses []MigrationStatus
	err      error
}

func (f fakeMigrations) Status(context.Context) ([]MigrationStatus, error) { return f.statuses, f.err }

func runHealth(t *testing.T, p Pinger, m MigrationChecker) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := HealthHandler(p, m)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := runHealth(t, fakePinger{}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
	if _, ok := body["pool"]; ok {
		t.Error("pool stats are only reported for a pgx pool")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := runHealth(t, fakePinger{err: errors.New("connection refused")}, fakeMigrations{})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "unhealthy" || body["error"] != "connection refused" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHealthHandler_PendingMigrations(t *testing.T) {
	m := fakeMigrations{statuses: []MigrationStatus{
		{Version: 1, Name: "core", Applied: true},
		{Version: 2, Name: "dose_indexes"},
	}}
	rec, body := runHealth(t, fakePinger{}, m)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["pending_migrations"] != float64(1) || body["error"] != "1 migration(s) pending" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHealthHandler_MigrationsUpToDate(t *testing.T) {
	m := fakeMigrations{statuses: []MigrationStatus{{Version: 1, Name: "core", Applied: true}}}
	rec, body := runHealth(t, fakePinger{}, m)
	if rec.Code != http.StatusOK || body["pending_migrations"] != float64(0) {
		t.Errorf("unexpected %d %v", rec.Code, body)
	}
}

func TestHealthHandler_MigrationStatusError(t *testing.T) {
	rec, body := runHealth(t, fakePinger{}, fakeMigrations{err: errors.New("read migrations dir: no such file")})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" || body["migrations_error"] == nil {
		t.Errorf("unexpected body %v", body)
	}
}
