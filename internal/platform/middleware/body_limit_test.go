package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1M", 1 << 20},
		{"10MB", 10 << 20},
		{"512K", 512 << 10},
		{"512kb", 512 << 10},
		{"1G", 1 << 30},
		{"1024", 1024},
		{"", 1 << 20},
		{"invalid", 1 << 20},
		{"-5M", 1 << 20},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.input); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func postCtx(path string, body []byte) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	c, _ := postCtx("/api/v1/registrations", []byte(`{"child_name":"आरव"}`))
	called := false
	err := BodyLimit("1M", "10M")(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil || len(b) == 0 {
			t.Fatalf("body not readable: %v", err)
		}
		called = true
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("expected handler to run, err=%v", err)
	}
}

func TestBodyLimit_RejectsOversizedBody_ContentLength(t *testing.T) {
	c, rec := postCtx("/api/v1/registrations", bytes.Repeat([]byte("x"), 2048))
	err := BodyLimit("1K", "10M")(func(echo.Context) error {
		t.Error("handler should not be called when body exceeds limit")
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || !strings.Contains(env.Error, "1024 bytes") {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestBodyLimit_SyncGetsLargerLimit(t *testing.T) {
	c, _ := postCtx("/api/v1/sync", bytes.Repeat([]byte("x"), 2048))
	called := false
	_ = BodyLimit("1K", "10K")(func(echo.Context) error { called = true; return nil })(c)
	if !called {
		t.Error("expected sync batch under the sync limit to pass")
	}

	c, rec := postCtx("/api/v1/sync/", bytes.Repeat([]byte("x"), 20<<10))
	_ = BodyLimit("1K", "10K")(func(echo.Context) error { return nil })(c)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 over the sync limit, got %d", rec.Code)
	}
}

func TestBodyLimit_SkipsNilBody(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/api/v1/registrations")
	called := false
	_ = BodyLimit("1", "1")(func(echo.Context) error { called = true; return nil })(c)
	if !called {
		t.Error("expected handler to be called for GET with no body")
	}
}

func TestBodyLimit_EnforcesLimitDuringRead(t *testing.T) {
	c, _ := postCtx("/api/v1/registrations", bytes.Repeat([]byte("a"), 1024))
	c.Request().ContentLength = -1
	err := BodyLimit("512", "10M")(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 HTTPError, got %v", err)
	}
}
