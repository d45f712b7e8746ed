package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for the equation server
type Config struct {
	Server    ServerConfig
	Solver    SolverConfig
	Plot      PlotConfig
	Artifacts ArtifactsConfig
	MinIO     MinIOConfig
	Log       LogConfig
	Sentry    SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SolverConfig bounds the work done per request
type SolverConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxEquationLength int           `mapstructure:"max_equation_length"`
}

// PlotConfig holds figure settings
type PlotConfig struct {
	Samples int     `mapstructure:"samples"`
	Width   float64 `mapstructure:"width"`
	Height  float64 `mapstructure:"height"`
	DPI     int     `mapstructure:"dpi"`
}

// ArtifactsConfig controls where plot images live and how long
type ArtifactsConfig struct {
	// Backend is "local" or "minio".
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	URLPrefix     string        `mapstructure:"url_prefix"`
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Address returns host:port for the listener
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
