package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/surgitrack/surgitrack/internal/config"
	"github.com/surgitrack/surgitrack/internal/domain/patientrecord"
	"github.com/surgitrack/surgitrack/internal/platform/archive"
	"github.com/surgitrack/surgitrack/internal/platform/db"
	"github.com/surgitrack/surgitrack/internal/platform/middleware"
	"github.com/surgitrack/surgitrack/internal/platform/reports"
	"github.com/surgitrack/surgitrack/internal/platform/telemetry"
)

const (
	version          = "0.1.0"
	metricsNamespace = "surgitrack"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "surgitrack-reports",
		Short:         "SurgiTrack discharge summary and test report generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		logger := newLogger(os.Getenv("ENV"), "info")
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func newAssembler(cfg *config.Config, logger *zerolog.Logger, clock func() time.Time, observer reports.Observer) *reports.Assembler {
	return reports.NewAssembler(reports.Options{
		Letterhead: reports.Letterhead{
			Name:       cfg.HospitalName,
			Address:    cfg.HospitalAddress,
			Phone:      cfg.HospitalPhone,
			Department: cfg.HospitalDepartment,
		},
		DefaultAuthor: cfg.ReportAuthor,
		Compress:      cfg.ReportCompress,
		Clock:         clock,
		Logger:        logger,
		Observer:      observer,
	})
}

// reportObserver feeds generation outcomes into the metrics registry.
func reportObserver(m *telemetry.Metrics) reports.Observer {
	return func(stats reports.Stats, size int, took time.Duration, err error) {
		m.ObserveReport(telemetry.Generation{
			Kind:           stats.Kind,
			Pages:          stats.Pages,
			EstimatedPages: stats.EstimatedPages,
			OverflowPages:  stats.OverflowPages,
			Bytes:          size,
			Duration:       took,
			Failed:         err != nil,
		})
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the report API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := telemetry.New(metricsNamespace)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", reports.ArchiveIDHeader, middleware.RequestIDHeader},
	}))
	e.Use(middleware.Audit(logger))

	apiV1 := e.Group("/api/v1")
	limits := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		limits = middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		}
	}
	apiV1.Use(middleware.RateLimit(limits))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	apiV1.Use(middleware.BodyLimit(cfg.MaxBodySize))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Record store is optional; without it only posted snapshots render.
	var fetcher reports.SnapshotFetcher
	if cfg.HasDatabase() {
		ctx := context.Background()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		runner := func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.ReadSnapshot(ctx, pool, fn)
		}
		fetcher = patientrecord.NewService(patientrecord.NewRepoPG(pool), runner)
		e.GET("/health/db", db.HealthHandler(pool))
		metrics.RegisterPool(metricsNamespace, func() (int32, int32, int32) {
			stat := pool.Stat()
			return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
		})
	} else {
		logger.Warn().Msg("DATABASE_URL not set; stored-record routes disabled")
	}

	var archiver reports.Archiver
	if cfg.ArchiveEnabled {
		store := archive.NewInMemoryStore()
		archive.NewHandler(store).RegisterRoutes(apiV1)
		archiver = store
	}

	assembler := newAssembler(cfg, &logger, nil, reportObserver(metrics))
	reports.NewHandler(assembler, fetcher, archiver).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
