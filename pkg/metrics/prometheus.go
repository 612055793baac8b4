// Package metrics provides Prometheus metrics for the PlayerStock service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Aggregation run outcomes used as label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Aggregation
	aggregationRuns      *prometheus.CounterVec
	aggregationLatency   prometheus.Histogram
	eligibleLeagues      prometheus.Histogram
	leagueFetchFailures  prometheus.Counter
	rosterAbsences       prometheus.Counter
	directoryMisses      prometheus.Counter
	membershipRows       prometheus.Counter
	inFlightAggregations prometheus.Gauge

	// Comparison
	comparisonRuns *prometheus.CounterVec

	// Upstream
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Cache
	cacheEntries prometheus.Gauge
	cacheLookups *prometheus.CounterVec

	// Worker pool
	workerTaskLatency prometheus.Histogram
	workerTaskErrors  prometheus.Counter
	workerConcurrency prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "playerstock",
		subsystem:        "core",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.aggregationRuns = auto.NewCounterVec(
		m.counterOpts("aggregation_runs_total", "Roster aggregation runs by outcome"),
		[]string{"outcome"},
	)
	m.aggregationLatency = auto.NewHistogram(
		m.histogramOpts("aggregation_duration_milliseconds", "End-to-end latency of an aggregation run", m.histogramBuckets),
	)
	m.eligibleLeagues = auto.NewHistogram(
		m.histogramOpts("eligible_leagues", "Number of leagues surviving the league filter per run", []float64{0, 1, 2, 5, 10, 20, 50, 100}),
	)
	m.leagueFetchFailures = auto.NewCounter(
		m.counterOpts("league_fetch_failures_total", "League roster fetches that failed and were skipped"),
	)
	m.rosterAbsences = auto.NewCounter(
		m.counterOpts("roster_absences_total", "Fetched leagues without a roster for the target user"),
	)
	m.directoryMisses = auto.NewCounter(
		m.counterOpts("directory_misses_total", "Player ids missing from the player directory"),
	)
	m.membershipRows = auto.NewCounter(
		m.counterOpts("membership_rows_written_total", "Roster membership rows written by aggregation runs"),
	)
	m.inFlightAggregations = auto.NewGauge(
		m.gaugeOpts("aggregations_in_flight", "Aggregation runs currently executing"),
	)

	m.comparisonRuns = auto.NewCounterVec(
		m.counterOpts("comparison_runs_total", "Comparison runs by kind and outcome"),
		[]string{"kind", "outcome"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Upstream gateway requests by endpoint and status"),
		[]string{"endpoint", "status"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_request_duration_milliseconds", "Upstream gateway request latency", m.histogramBuckets),
		[]string{"endpoint"},
	)

	m.cacheEntries = auto.NewGauge(
		m.gaugeOpts("cache_entries", "Handles with a cached aggregation result"),
	)
	m.cacheLookups = auto.NewCounterVec(
		m.counterOpts("cache_lookups_total", "Result cache lookups by result"),
		[]string{"result"},
	)

	m.workerTaskLatency = auto.NewHistogram(
		m.histogramOpts("worker_task_duration_milliseconds", "Latency of fan-out tasks", m.histogramBuckets),
	)
	m.workerTaskErrors = auto.NewCounter(
		m.counterOpts("worker_task_errors_total", "Fan-out tasks that returned an error"),
	)
	m.workerConcurrency = auto.NewGauge(
		m.gaugeOpts("worker_concurrency", "Configured fan-out concurrency cap"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordAggregationRun counts a finished run and its latency.
func RecordAggregationRun(outcome string, latencyMs float64) {
	globalManager.aggregationRuns.WithLabelValues(outcome).Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordEligibleLeagues observes how many leagues passed the filter.
func RecordEligibleLeagues(n int) {
	globalManager.eligibleLeagues.Observe(float64(n))
}

// RecordLeagueFetchFailure counts a skipped league.
func RecordLeagueFetchFailure() {
	globalManager.leagueFetchFailures.Inc()
}

// RecordRosterAbsence counts a league without the user's roster.
func RecordRosterAbsence() {
	globalManager.rosterAbsences.Inc()
}

// RecordDirectoryMiss counts a player id without a directory entry.
func RecordDirectoryMiss() {
	globalManager.directoryMisses.Inc()
}

// RecordMembershipRows adds to the written membership row counter.
func RecordMembershipRows(n int) {
	globalManager.membershipRows.Add(float64(n))
}

// IncAggregationsInFlight marks a run as started.
func IncAggregationsInFlight() {
	globalManager.inFlightAggregations.Inc()
}

// DecAggregationsInFlight marks a run as finished.
func DecAggregationsInFlight() {
	globalManager.inFlightAggregations.Dec()
}

// RecordComparisonRun counts a comparison run.
func RecordComparisonRun(kind, outcome string) {
	globalManager.comparisonRuns.WithLabelValues(kind, outcome).Inc()
}

// RecordUpstreamRequest counts an upstream call and its latency.
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateCacheEntries sets the number of cached handles.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordCacheLookup counts a cache read as "hit" or "miss".
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordWorkerTask observes a fan-out task.
func RecordWorkerTask(latencyMs float64, failed bool) {
	globalManager.workerTaskLatency.Observe(latencyMs)
	if failed {
		globalManager.workerTaskErrors.Inc()
	}
}

// UpdateWorkerConcurrency sets the configured fan-out cap.
func UpdateWorkerConcurrency(n int) {
	globalManager.workerConcurrency.Set(float64(n))
}

// RecordHTTPRequest counts an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
