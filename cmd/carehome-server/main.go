package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carehome/carehome/internal/access"
	"github.com/carehome/carehome/internal/config"
	"github.com/carehome/carehome/internal/domain/administration"
	"github.com/carehome/carehome/internal/domain/group"
	"github.com/carehome/carehome/internal/domain/identity"
	"github.com/carehome/carehome/internal/domain/medication"
	"github.com/carehome/carehome/internal/domain/notification"
	"github.com/carehome/carehome/internal/domain/prescription"
	"github.com/carehome/carehome/internal/domain/resident"
	"github.com/carehome/carehome/internal/platform/auth"
	"github.com/carehome/carehome/internal/platform/db"
	"github.com/carehome/carehome/internal/platform/middleware"
	"github.com/carehome/carehome/internal/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carehome-server",
		Short: "Care home management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// sweepCmd runs one reminder sweep and exits, for cron-style deployments
// where the in-process scheduler is disabled.
func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one dose reminder sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			app := buildApp(pool, cfg, logger)
			return app.scheduler.Sweep(ctx)
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// app holds the wired services and handlers.
type app struct {
	identityHandler       *identity.Handler
	groupHandler          *group.Handler
	residentHandler       *resident.Handler
	medicationHandler     *medication.Handler
	prescriptionHandler   *prescription.Handler
	administrationHandler *administration.Handler
	notificationHandler   *notification.Handler
	scheduler             *scheduler.Scheduler
}

func buildApp(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *app {
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.RunInTx(ctx, pool, fn)
	}

	policy := access.NewPolicy(access.NewStorePG(pool))

	userRepo := identity.NewUserRepoPG(pool)
	profileRepo := identity.NewProfileRepoPG(pool)
	identitySvc := identity.NewService(userRepo, profileRepo)

	groupRepo := group.NewGroupRepoPG(pool)
	membershipRepo := group.NewMembershipRepoPG(pool)
	groupSvc := group.NewService(groupRepo, membershipRepo, txRunner)

	residentRepo := resident.NewRepoPG(pool)
	assignmentRepo := resident.NewAssignmentRepoPG(pool)
	residentSvc := resident.NewService(residentRepo, assignmentRepo, policy)

	medicationRepo := medication.NewRepoPG(pool)
	medicationSvc := medication.NewService(medicationRepo)

	prescriptionRepo := prescription.NewRepoPG(pool)
	prescriptionSvc := prescription.NewService(prescriptionRepo, residentSvc, medicationSvc)

	administrationRepo := administration.NewRepoPG(pool)
	administrationSvc := administration.NewService(administrationRepo, prescriptionSvc, medicationRepo, txRunner)

	var sink notification.Sink
	if cfg.PushGatewayURL != "" {
		sink = notification.NewPushSink(cfg.PushGatewayURL)
	} else {
		sink = notification.NewLogSink(logger)
	}
	notificationRepo := notification.NewRepoPG(pool)
	notificationSvc := notification.NewService(notificationRepo, identitySvc, sink, logger)

	sched := scheduler.New(prescriptionSvc, administrationSvc, assignmentRepo, notificationSvc,
		cfg.TickInterval(), cfg.NotifyWindow(), logger)

	return &app{
		identityHandler:       identity.NewHandler(identitySvc, []byte(cfg.JWTSecret), cfg.TokenTTL()),
		groupHandler:          group.NewHandler(groupSvc, policy),
		residentHandler:       resident.NewHandler(residentSvc, policy),
		medicationHandler:     medication.NewHandler(medicationSvc, policy),
		prescriptionHandler:   prescription.NewHandler(prescriptionSvc, policy),
		administrationHandler: administration.NewHandler(administrationSvc, policy),
		notificationHandler:   notification.NewHandler(notificationSvc),
		scheduler:             sched,
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Timeout(cfg.HandlerTimeout()))
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	app := buildApp(pool, cfg, logger)

	// Public surface: registration, login and health checks.
	public := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))

	// Everything else requires a bearer token.
	authed := e.Group("/api/v1")
	authed.Use(middleware.RateLimit(rateLimitCfg))
	authed.Use(auth.Middleware([]byte(cfg.JWTSecret)))

	app.identityHandler.RegisterRoutes(public, authed)
	app.groupHandler.RegisterRoutes(authed)
	app.residentHandler.RegisterRoutes(authed)
	app.medicationHandler.RegisterRoutes(authed)
	app.prescriptionHandler.RegisterRoutes(authed)
	app.administrationHandler.RegisterRoutes(authed)
	app.notificationHandler.RegisterRoutes(authed)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Reminder sweep loop
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if cfg.SchedulerEnabled {
		go app.scheduler.Run(schedCtx)
	} else {
		logger.Info().Msg("in-process scheduler disabled")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	schedCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
