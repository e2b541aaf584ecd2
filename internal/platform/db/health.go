package db

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type poolSummary struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func summarize(pool *pgxpool.Pool) poolSummary {
	st := pool.Stat()
	return poolSummary{
		TotalConns:    st.TotalConns(),
		IdleConns:     st.IdleConns(),
		AcquiredConns: st.AcquiredConns(),
		MaxConns:      st.MaxConns(),
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MigrationChecker is satisfied by *Migrator.
type MigrationChecker interface {
	Status(ctx context.Context) ([]MigrationStatus, error)
}

// HealthHandler pings the database and, when m is not nil, counts pending
// migrations. The server is reported unhealthy while migrations are pending
// because sync batches would fail against the old schema. A failure to read
// migration status is reported but does not fail the check.
func HealthHandler(p Pinger, m MigrationChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := p.Ping(ctx)
		body := map[string]interface{}{
			"status":  "healthy",
			"ping_ms": time.Since(start).Milliseconds(),
		}
		if pool, ok := p.(*pgxpool.Pool); ok {
			body["pool"] = summarize(pool)
		}
		if err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}

		if m != nil {
			statuses, serr := m.Status(ctx)
			if serr != nil {
				body["migrations_error"] = serr.Error()
				return c.JSON(http.StatusOK, body)
			}
			pending := 0
			for _, s := range statuses {
				if !s.Applied {
					pending++
				}
			}
			body["pending_migrations"] = pending
			if pending > 0 {
				body["status"] = "unhealthy"
				body["error"] = fmt.Sprintf("%d migration(s) pending", pending)
				return c.JSON(http.StatusServiceUnavailable, body)
			}
		}
		return c.JSON(http.StatusOK, body)
	}
}
