package apiresponse

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the body shape of every JSON API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a successful envelope.
func OK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Failure builds an error envelope. Data may carry field errors.
func Failure(message, err string, data interface{}) Envelope {
	return Envelope{Success: false, Message: message, Error: err, Data: data}
}

// Fail writes an error envelope.
func Fail(c echo.Context, status int, message, err string, data interface{}) error {
	return c.JSON(status, Failure(message, err, data))
}
