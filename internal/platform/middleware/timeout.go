package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/pkg/apiresponse"
)

// RequestTimeout puts a deadline on each request context and answers 504 if
// the handler has not returned by then. Paths starting with one of skip (bulk
// exports, sync) are left alone.
func RequestTimeout(timeout time.Duration, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range skip {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					if c.Response().Committed {
						return nil
					}
					return apiresponse.Fail(c, http.StatusGatewayTimeout,
						"सर्भरले समयमा जवाफ दिएन | The server did not respond in time",
						"request processing exceeded the allowed time limit", nil)
				}
				return ctx.Err()
			}
		}
	}
}
