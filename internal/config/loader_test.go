package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Solver.Timeout)
		assert.Equal(t, 1024, cfg.Solver.MaxEquationLength)
		assert.Equal(t, 800, cfg.Plot.Samples)
		assert.Equal(t, 150, cfg.Plot.DPI)
		assert.Equal(t, BackendLocal, cfg.Artifacts.Backend)
		assert.Equal(t, "/static/plots", cfg.Artifacts.URLPrefix)
		assert.True(t, cfg.IsDevelopment())
		assert.Equal(t, "development", cfg.Sentry.Environment)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SOLVER_TIMEOUT", "2s")
		t.Setenv("PLOT_SAMPLES", "400")
		t.Setenv("ARTIFACTS_URL_PREFIX", "/plots/")
		t.Setenv("SERVER_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, cfg.Solver.Timeout)
		assert.Equal(t, 400, cfg.Plot.Samples)
		assert.Equal(t, "/plots", cfg.Artifacts.URLPrefix)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("PORT is honoured", func(t *testing.T) {
		t.Setenv("PORT", "9001")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9001, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0:9001", cfg.Server.Address())
	})

	t.Run("SERVER_PORT wins over PORT", func(t *testing.T) {
		t.Setenv("PORT", "9001")
		t.Setenv("SERVER_PORT", "9002")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9002, cfg.Server.Port)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		t.Setenv("ARTIFACTS_BACKEND", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown artifacts backend")
	})

	t.Run("rejects non-positive samples", func(t *testing.T) {
		t.Setenv("PLOT_SAMPLES", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plot_samples")
	})
}
