package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMissing(t *testing.T) {
	err := Missing("district", "ward")
	if err.Error() != "Missing required fields: district, ward" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsValidation(fmt.Errorf("create: %w", err)) {
		t.Error("expected wrapped validation error to be recognised")
	}
}

func TestHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", Invalid("gender must be male, female or other", "gender"), http.StatusBadRequest},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("serial SP1: %w", ErrDuplicate), http.StatusConflict},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTP(tt.err, "registration not found"); got.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, got.Code)
			}
		})
	}
	if he := HTTP(ErrNotFound, "registration not found"); he.Message != "registration not found" {
		t.Errorf("unexpected message %v", he.Message)
	}
	if he := HTTP(errors.New("boom"), ""); he.Internal == nil {
		t.Error("expected internal error kept for logging")
	}
}
