package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eqsolve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eqsolve_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eqsolve_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"method"},
	)

	// Solver metrics
	solvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eqsolve_solves_total",
			Help: "Total number of solve attempts by outcome",
		},
		[]string{"outcome"},
	)

	solveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eqsolve_solve_duration_seconds",
			Help:    "Equation solve duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	// Plot metrics
	plotsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eqsolve_plots_rendered_total",
			Help: "Total number of plot images rendered",
		},
	)

	plotRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eqsolve_plot_render_duration_seconds",
			Help:    "Plot render duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	artifactsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eqsolve_artifacts_evicted_total",
			Help: "Total number of plot artifacts removed by the janitor",
		},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	Skip func(*fiber.Ctx) bool
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip: CombinedSkipper(HealthSkipper, MetricsSkipper),
	}
}

// Metrics creates a Prometheus metrics middleware. Paths are labelled by
// route pattern so artifact names do not explode label cardinality.
func Metrics(config ...MetricsConfig) fiber.Handler {
	cfg := DefaultMetricsConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		httpActiveRequests.WithLabelValues(method).Inc()
		defer httpActiveRequests.WithLabelValues(method).Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		if path == "" || (path == "/" && c.Path() != "/") {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordSolve records a solve attempt. outcome is "ok" or an error kind.
func RecordSolve(outcome string, duration time.Duration) {
	solvesTotal.WithLabelValues(outcome).Inc()
	solveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordPlotRendered records a rendered plot image
func RecordPlotRendered(duration time.Duration) {
	plotsRendered.Inc()
	plotRenderDuration.Observe(duration.Seconds())
}

// RecordArtifactsEvicted records artifacts removed by a sweep
func RecordArtifactsEvicted(count int) {
	artifactsEvicted.Add(float64(count))
}
