package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner metrics
var (
	// ScenariosTotal counts finished scenarios by outcome.
	ScenariosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apicheck_scenarios_total",
			Help: "Total number of scenarios run, by outcome",
		},
		[]string{"status"},
	)

	// StepDuration tracks step execution time by outcome.
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apicheck_step_duration_seconds",
			Help:    "Duration of scenario steps in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	// MockResolutions counts mock lookups by capability and whether a registration existed.
	MockResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apicheck_mock_resolutions_total",
			Help: "Total number of mock provider lookups",
		},
		[]string{"capability", "outcome"},
	)
)

// Outbound HTTP metrics
var (
	// OutboundRequestDuration tracks latency of requests sent to the target API.
	OutboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apicheck_outbound_request_duration_seconds",
			Help:    "Duration of requests sent to the API under test",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "status"},
	)
)

// Stub server metrics
var (
	// HTTPRequestDuration tracks request latency by method, path, and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry in the text exposition format,
// for node_exporter's textfile collector or CI artifacts.
// Side effects: writes the file at path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns an HTTP middleware that records request metrics.
// Side effects: records Prometheus metrics and reads the current time.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := normalizePath(r.URL.Path)

		HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// normalizePath collapses numeric path segments to {id} to bound label cardinality.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// RecordScenario increments the scenario counter for the given outcome.
// Side effects: records a Prometheus metric.
func RecordScenario(status string) {
	ScenariosTotal.WithLabelValues(status).Inc()
}

// RecordStep records how long a step took.
// Side effects: records a Prometheus metric.
func RecordStep(status string, duration time.Duration) {
	StepDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordOutboundRequest records an outbound request. status is the HTTP code,
// or "error" when no response was received.
// Side effects: records a Prometheus metric.
func RecordOutboundRequest(method, status string, duration time.Duration) {
	OutboundRequestDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

// RecordMockResolution counts a mock lookup.
// Side effects: records a Prometheus metric.
func RecordMockResolution(capability string, found bool) {
	outcome := "hit"
	if !found {
		outcome = "miss"
	}
	MockResolutions.WithLabelValues(capability, outcome).Inc()
}
