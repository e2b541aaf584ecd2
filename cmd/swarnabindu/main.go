package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/swarnabindu/prashan/internal/config"
	"github.com/swarnabindu/prashan/internal/domain/doselog"
	"github.com/swarnabindu/prashan/internal/domain/offlinesync"
	"github.com/swarnabindu/prashan/internal/domain/registration"
	"github.com/swarnabindu/prashan/internal/domain/screening"
	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/analytics"
	"github.com/swarnabindu/prashan/internal/platform/db"
	"github.com/swarnabindu/prashan/internal/platform/middleware"
	"github.com/swarnabindu/prashan/internal/platform/reporting"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "swarnabindu",
		Short:         "Swarnabindu Prashan registration and screening service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// clock returns the wall clock in the configured zone.
func clock(cfg *config.Config) (func() time.Time, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registration API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(cmd *cobra.Command, fn func(context.Context, *db.Migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}

		ctx := cmd.Context()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.Timezone)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(ctx, db.NewMigrator(pool, dir))
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					status, at := "pending", ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							at = s.AppliedAt.Format(time.RFC3339)
						}
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, at)
				}
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg.IsDev())

	now, err := clock(cfg)
	if err != nil {
		return err
	}
	exportOpts, err := exportOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.Timezone)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	registry, err := form.NewRegistry(cfg.QuestionsFile, logger)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	go func() {
		if err := registry.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("question schema watcher stopped")
		}
	}()

	// Repositories and services
	regRepo := registration.NewRepoPG(pool)
	screeningSvc := screening.NewService(screening.NewRepoPG(pool))
	doseSvc := doselog.NewService(doselog.NewRepoPG(pool))
	regSvc := registration.NewService(regRepo, doseSvc, db.NewTransactor(pool), now)
	syncSvc := offlinesync.NewService(regSvc, screeningSvc, doseSvc, logger, now)
	statsSvc := reporting.NewService(reporting.NewStorePG(pool))
	usage := analytics.NewUsageTracker(10000)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger, cfg.IsDev())

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders("/api/v1/exports"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", "X-Device-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.SyncBodyLimit))
	e.Use(middleware.RequestTimeout(cfg.Timeout(), "/api/v1/sync", "/api/v1/exports"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool, db.NewMigrator(pool, cfg.MigrationsDir)))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(analytics.UsageMiddleware(usage))
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	registration.NewHandler(regSvc, registry.Schema).RegisterRoutes(apiV1)
	screening.NewHandler(screeningSvc).RegisterRoutes(apiV1)
	doselog.NewHandler(doseSvc).RegisterRoutes(apiV1)
	offlinesync.NewHandler(syncSvc).RegisterRoutes(apiV1)
	reporting.NewHandler(statsSvc).RegisterRoutes(apiV1)
	form.NewHandler(registry, now).RegisterRoutes(apiV1)
	analytics.NewUsageHandler(usage, now).RegisterRoutes(apiV1)
	newExportHandler(serverSource{regs: regSvc, screenings: screeningSvc, doses: doseSvc}, exportOpts).RegisterRoutes(apiV1)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
