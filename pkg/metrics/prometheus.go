// Package metrics provides Prometheus metrics for the cohort early warning tool.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cew"

// Import row outcomes.
const (
	OutcomeInserted  = "inserted"
	OutcomeDuplicate = "duplicate"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	registry prometheus.Registerer

	// Domain
	signalsFetched    prometheus.Counter
	scholarsScored    prometheus.Counter
	reportsRendered   prometheus.Counter
	importRows        *prometheus.CounterVec
	migrationsRun     prometheus.Counter
	scoringLatency    prometheus.Histogram
	repositoryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{registry: prometheus.DefaultRegisterer}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}
}

func histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: prometheus.DefBuckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.signalsFetched = auto.NewCounter(counterOpts(
		"signals_fetched_total", "Total number of signal rows read from the store"))
	m.scholarsScored = auto.NewCounter(counterOpts(
		"scholars_scored_total", "Total number of scholar scores produced"))
	m.reportsRendered = auto.NewCounter(counterOpts(
		"reports_rendered_total", "Total number of reports rendered"))
	m.importRows = auto.NewCounterVec(counterOpts(
		"import_rows_total", "CSV rows processed by outcome"), []string{"outcome"})
	m.migrationsRun = auto.NewCounter(counterOpts(
		"migrations_applied_total", "Total number of schema migrations applied"))
	m.scoringLatency = auto.NewHistogram(histogramOpts(
		"scoring_latency_milliseconds", "Time spent ranking scholars in milliseconds"))
	m.repositoryLatency = auto.NewHistogramVec(histogramOpts(
		"repository_query_latency_milliseconds", "Repository operation latency in milliseconds"),
		[]string{"operation"})

	m.httpRequests = auto.NewCounterVec(counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.rateLimited = auto.NewCounterVec(counterOpts(
		"http_rate_limited_total", "Requests rejected by the rate limiter"), []string{"endpoint"})

	m.errorRateByComponent = auto.NewCounterVec(counterOpts(
		"errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
}

// RecordSignalsFetched adds n fetched signal rows.
func RecordSignalsFetched(n int) {
	globalManager.signalsFetched.Add(float64(n))
}

// RecordScholarsScored adds n produced scores.
func RecordScholarsScored(n int) {
	globalManager.scholarsScored.Add(float64(n))
}

// RecordReportRendered increments the rendered reports counter.
func RecordReportRendered() {
	globalManager.reportsRendered.Inc()
}

// RecordImportRows adds n import rows with the given outcome.
func RecordImportRows(outcome string, n int) {
	globalManager.importRows.WithLabelValues(outcome).Add(float64(n))
}

// RecordMigrationApplied increments the applied migrations counter.
func RecordMigrationApplied() {
	globalManager.migrationsRun.Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository latency for one operation.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rejected requests counter for endpoint.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
