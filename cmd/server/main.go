package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/njchilds90/eqsolve/internal/config"
	"github.com/njchilds90/eqsolve/internal/handler"
	"github.com/njchilds90/eqsolve/internal/middleware"
	"github.com/njchilds90/eqsolve/plot"
)

const appVersion = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sentryEnabled, err := middleware.InitSentry(middleware.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          "eqsolve@" + appVersion,
		SampleRate:       1.0,
		TracesSampleRate: 0.1,
	})
	if err != nil {
		logger.Error("failed to initialize Sentry", zap.Error(err))
	}
	if sentryEnabled {
		logger.Info("Sentry initialized", zap.String("environment", cfg.Sentry.Environment))
		defer middleware.FlushSentry(5 * time.Second)
	}

	// Pay the font loading cost before the first request
	if err := plot.Init(); err != nil {
		logger.Fatal("failed to initialize plotting", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	go deps.Janitor.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "eqsolve",
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          cfg.Solver.Timeout + 15*time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          handler.ErrorHandler(logger),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(middleware.DefaultLoggerConfig(logger)))
	app.Use(middleware.RecoverWithSentry(logger, sentryEnabled))
	app.Use(middleware.CORS())
	app.Use(middleware.Metrics())

	registerRoutes(app, deps)

	go func() {
		addr := cfg.Server.Address()
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("artifacts_backend", cfg.Artifacts.Backend),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
