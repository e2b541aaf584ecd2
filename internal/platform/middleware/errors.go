package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/swarnabindu/prashan/pkg/apiresponse"
)

// HTTPErrorHandler renders every error returned by a handler as the
// {success:false, message, error} envelope. Internal error text is hidden
// from clients outside development.
func HTTPErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		detail := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			detail = fmt.Sprint(he.Message)
			if he.Internal != nil {
				detail = he.Internal.Error()
			}
		}

		message := http.StatusText(code)
		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", code).Msg("request failed")
			message = "आन्तरिक त्रुटि | Internal server error"
			if !dev {
				detail = ""
			}
		} else if he != nil {
			message = fmt.Sprint(he.Message)
			detail = ""
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, apiresponse.Failure(message, detail, nil))
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
