package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve/internal/artifact"
	"github.com/njchilds90/eqsolve/internal/config"
	"github.com/njchilds90/eqsolve/internal/handler"
	"github.com/njchilds90/eqsolve/internal/middleware"
	"github.com/njchilds90/eqsolve/internal/service"
	"github.com/njchilds90/eqsolve/plot"
)

// Dependencies holds everything the routes need
type Dependencies struct {
	Store   artifact.Store
	Janitor *artifact.Janitor
	Solver  *service.SolveService

	Health    *handler.HealthHandler
	Solve     *handler.SolveHandler
	Artifacts *handler.ArtifactHandler
	// PlotsPath is the route prefix plot images are served under
	PlotsPath string
}

func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	store, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	janitor := artifact.NewJanitor(store, cfg.Artifacts.TTL, cfg.Artifacts.SweepInterval, logger.Named("janitor"))
	janitor.OnEvict = middleware.RecordArtifactsEvicted

	solver := service.NewSolveService(store, logger.Named("solver"), service.SolveOptions{
		Timeout:   cfg.Solver.Timeout,
		URLPrefix: cfg.Artifacts.URLPrefix,
		Plot: plot.Options{
			Samples: cfg.Plot.Samples,
			Width:   cfg.Plot.Width,
			Height:  cfg.Plot.Height,
			DPI:     cfg.Plot.DPI,
		},
	})

	return &Dependencies{
		Store:     store,
		Janitor:   janitor,
		Solver:    solver,
		Health:    handler.NewHealthHandler(),
		Solve:     handler.NewSolveHandler(solver, logger, cfg.Solver.MaxEquationLength),
		Artifacts: handler.NewArtifactHandler(store, logger),
		PlotsPath: cfg.Artifacts.URLPrefix,
	}, nil
}

func initStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	switch cfg.Artifacts.Backend {
	case config.BackendMinIO:
		store, err := artifact.NewMinIOStore(ctx, artifact.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("minio artifact store: %w", err)
		}
		return store, nil
	default:
		store, err := artifact.NewLocalStore(cfg.Artifacts.Dir)
		if err != nil {
			return nil, fmt.Errorf("local artifact store: %w", err)
		}
		return store, nil
	}
}
