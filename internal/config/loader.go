package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends accepted for artifacts_backend
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is what most hosting platforms inject
	_ = v.BindEnv("server_port", "SERVER_PORT", "PORT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/eqsolve")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.ShutdownTimeout = v.GetDuration("server_shutdown_timeout")

	// Solver
	cfg.Solver.Timeout = v.GetDuration("solver_timeout")
	cfg.Solver.MaxEquationLength = v.GetInt("solver_max_equation_length")

	// Plot
	cfg.Plot.Samples = v.GetInt("plot_samples")
	cfg.Plot.Width = v.GetFloat64("plot_width")
	cfg.Plot.Height = v.GetFloat64("plot_height")
	cfg.Plot.DPI = v.GetInt("plot_dpi")

	// Artifacts
	cfg.Artifacts.Backend = strings.ToLower(v.GetString("artifacts_backend"))
	cfg.Artifacts.Dir = v.GetString("artifacts_dir")
	cfg.Artifacts.TTL = v.GetDuration("artifacts_ttl")
	cfg.Artifacts.SweepInterval = v.GetDuration("artifacts_sweep_interval")
	cfg.Artifacts.URLPrefix = strings.TrimRight(v.GetString("artifacts_url_prefix"), "/")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// Logging
	cfg.Log.Level = v.GetString("log_level")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.Server.Env
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8000)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_shutdown_timeout", 10*time.Second)

	// Solver defaults
	v.SetDefault("solver_timeout", 10*time.Second)
	v.SetDefault("solver_max_equation_length", 1024)

	// Plot defaults
	v.SetDefault("plot_samples", 800)
	v.SetDefault("plot_width", 8.0)
	v.SetDefault("plot_height", 4.5)
	v.SetDefault("plot_dpi", 150)

	// Artifact defaults
	v.SetDefault("artifacts_backend", BackendLocal)
	v.SetDefault("artifacts_dir", "static/plots")
	v.SetDefault("artifacts_ttl", time.Hour)
	v.SetDefault("artifacts_sweep_interval", 5*time.Minute)
	v.SetDefault("artifacts_url_prefix", "/static/plots")

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "eqsolve")
	v.SetDefault("minio_secret_key", "eqsolve123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "eqsolve-plots")

	// Logging defaults
	v.SetDefault("log_level", "info")

	// Sentry defaults
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "")
}

func validate(cfg *Config) error {
	switch cfg.Artifacts.Backend {
	case BackendLocal:
		if cfg.Artifacts.Dir == "" {
			return fmt.Errorf("artifacts_dir is required for the local backend")
		}
	case BackendMinIO:
		if cfg.MinIO.Endpoint == "" || cfg.MinIO.Bucket == "" {
			return fmt.Errorf("minio_endpoint and minio_bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown artifacts backend %q", cfg.Artifacts.Backend)
	}
	if cfg.Plot.Samples <= 0 {
		return fmt.Errorf("plot_samples must be positive, got %d", cfg.Plot.Samples)
	}
	if cfg.Plot.Width <= 0 || cfg.Plot.Height <= 0 || cfg.Plot.DPI <= 0 {
		return fmt.Errorf("plot_width, plot_height and plot_dpi must be positive")
	}
	if cfg.Solver.Timeout <= 0 {
		return fmt.Errorf("solver_timeout must be positive")
	}
	if cfg.Solver.MaxEquationLength <= 0 {
		return fmt.Errorf("solver_max_equation_length must be positive")
	}
	if !strings.HasPrefix(cfg.Artifacts.URLPrefix, "/") {
		return fmt.Errorf("artifacts_url_prefix must be an absolute path, got %q", cfg.Artifacts.URLPrefix)
	}
	if cfg.Artifacts.TTL <= 0 || cfg.Artifacts.SweepInterval <= 0 {
		return fmt.Errorf("artifacts_ttl and artifacts_sweep_interval must be positive")
	}
	return nil
}
