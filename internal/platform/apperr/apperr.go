// Package apperr holds the error values services return and their mapping
// to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// ValidationError is a user-correctable problem with a request. Fields names
// the offending inputs when known.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(message string, fields ...string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// Missing reports absent required fields the way clients already parse:
// "Missing required fields: a, b".
func Missing(fields ...string) error {
	return &ValidationError{
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTP converts a service error into an echo error. notFound is the message
// used for ErrNotFound; anything unrecognised becomes a 500 carrying err.
func HTTP(err error, notFound string) *echo.HTTPError {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
