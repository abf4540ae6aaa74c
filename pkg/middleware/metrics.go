package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/fsroute/pkg/loader"
	"github.com/vango-dev/fsroute/pkg/router"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fsroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "fsroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects Prometheus metrics for route matching, loader runs,
// tree rebuilds and HTTP responses.
//
// Metrics collected:
//   - fsroute_matches_total: Counter of matches by outcome
//   - fsroute_match_duration_seconds: Histogram of match duration
//   - fsroute_loader_runs_total: Counter of loader runs by route and result
//   - fsroute_loader_duration_seconds: Histogram of loader duration by route
//   - fsroute_loader_dependencies: Histogram of dependency set sizes
//   - fsroute_rebuilds_total: Counter of rebuilds by result
//   - fsroute_rebuild_duration_seconds: Histogram of rebuild duration
//   - fsroute_routes: Gauge of routes in the published tree
//   - fsroute_generation: Gauge of the published tree generation
//   - fsroute_http_requests_total: Counter of responses by method and code
//   - fsroute_http_request_duration_seconds: Histogram of response time
type Metrics struct {
	matchesTotal    *prometheus.CounterVec
	matchDuration   prometheus.Histogram
	loaderRuns      *prometheus.CounterVec
	loaderDuration  *prometheus.HistogramVec
	loaderDeps      prometheus.Histogram
	rebuildsTotal   *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	routes          prometheus.Gauge
	generation      prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the metrics with the configured registry. Calling it
// twice against the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		matchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "matches_total",
			Help:        "Total number of route matches by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		matchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "match_duration_seconds",
			Help:        "Route match duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3},
		}),

		loaderRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_runs_total",
			Help:        "Total number of loader runs by route and result",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "result"}),

		loaderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_duration_seconds",
			Help:        "Loader duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		loaderDeps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_dependencies",
			Help:        "Number of dependencies recorded per loader run",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50},
		}),

		rebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rebuilds_total",
			Help:        "Total number of route tree rebuilds by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		rebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rebuild_duration_seconds",
			Help:        "Route tree rebuild duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		routes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "routes",
			Help:        "Number of page and API routes in the published tree",
			ConstLabels: config.ConstLabels,
		}),

		generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "generation",
			Help:        "Generation of the published route tree",
			ConstLabels: config.ConstLabels,
		}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP responses by method and status code",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP response time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method"}),
	}
}

// ObserveMatch records one route match.
func (m *Metrics) ObserveMatch(route, outcome string, elapsed time.Duration) {
	m.matchesTotal.WithLabelValues(outcome).Inc()
	m.matchDuration.Observe(elapsed.Seconds())
}

// ObserveLoader records one loader run. Route is the route pattern, which
// keeps the label set bounded.
func (m *Metrics) ObserveLoader(route string, deps int, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = categorizeError(err)
	}
	m.loaderRuns.WithLabelValues(route, result).Inc()
	m.loaderDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	if err == nil {
		m.loaderDeps.Observe(float64(deps))
	}
}

// ObserveRebuild records a rebuild. It has the signature of a
// router.Store OnRebuild hook.
func (m *Metrics) ObserveRebuild(ev router.RebuildEvent) {
	m.rebuildDuration.Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		m.rebuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.rebuildsTotal.WithLabelValues("success").Inc()
	m.routes.Set(float64(ev.Routes))
	m.generation.Set(float64(ev.Generation))
}

// Handler wraps next, counting responses and timing them.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.Status())).Inc()
	})
}

// categorizeError returns a bounded category for a loader error.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, loader.ErrDiscarded):
		return "discarded"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	case strings.Contains(msg, "validation"):
		return "validation"
	default:
		return "error"
	}
}

// statusWriter records the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the written status, 200 when the handler wrote nothing.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
