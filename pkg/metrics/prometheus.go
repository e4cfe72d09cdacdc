// Package metrics provides Prometheus metrics for the meet points service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Results
	resultsSubmitted *prometheus.CounterVec
	resultsRejected  *prometheus.CounterVec
	resultsDeleted   prometheus.Counter

	// Recalculation
	recomputeRuns     *prometheus.CounterVec
	recomputeFailures *prometheus.CounterVec
	recomputeLatency  prometheus.Histogram
	rankingWrites     prometheus.Counter
	aggregationSkips  *prometheus.CounterVec

	// Catalog
	athletesTotal prometheus.Gauge
	eventsTotal   prometheus.Gauge
	resultsTotal  prometheus.Gauge

	// Repair queue
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueue    prometheus.Counter
	queueDequeue    prometheus.Counter
	queueCoalesced  prometheus.Counter
	queueRejected   prometheus.Counter
	queueWaitMillis prometheus.Histogram

	// Repair workers
	workerCount    prometheus.Gauge
	workerActive   prometheus.Gauge
	workerLatency  prometheus.Histogram
	workerErrors   prometheus.Counter
	workerRepaired prometheus.Counter
	workerRequeued prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served at /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "meet",
		subsystem:        "points",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

var msBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // shared latency buckets

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.resultsSubmitted = m.counterVec("results_submitted_total", "Results accepted, by entrant kind", "kind")
	m.resultsRejected = m.counterVec("results_rejected_total", "Results rejected, by reason", "reason")
	m.resultsDeleted = m.counter("results_deleted_total", "Results deleted")

	m.recomputeRuns = m.counterVec("recompute_runs_total", "Group recalculations, by trigger", "trigger")
	m.recomputeFailures = m.counterVec("recompute_failures_total", "Failed group recalculations, by trigger", "trigger")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Latency of one group recalculation", msBuckets)
	m.rankingWrites = m.counter("ranking_writes_total", "Position and points writes")
	m.aggregationSkips = m.counterVec("aggregation_skips_total", "Records skipped during aggregation, by reason", "reason")

	m.athletesTotal = m.gauge("athletes_total", "Registered athletes")
	m.eventsTotal = m.gauge("events_total", "Configured events")
	m.resultsTotal = m.gauge("results_total", "Recorded results")

	m.queueSize = m.gauge("repair_queue_size", "Groups waiting for repair")
	m.queueCapacity = m.gauge("repair_queue_capacity", "Repair queue capacity")
	m.queueEnqueue = m.counter("repair_queue_enqueue_total", "Groups queued for repair")
	m.queueDequeue = m.counter("repair_queue_dequeue_total", "Groups taken off the repair queue")
	m.queueCoalesced = m.counter("repair_queue_coalesced_total", "Repair requests merged into an already queued group")
	m.queueRejected = m.counter("repair_queue_rejected_total", "Repair requests dropped because the queue was full or closed")
	m.queueWaitMillis = m.histogram("repair_queue_wait_milliseconds", "Time a group spent queued", msBuckets)

	m.workerCount = m.gauge("repair_workers", "Repair workers running")
	m.workerActive = m.gauge("repair_workers_active", "Repair workers processing a group")
	m.workerLatency = m.histogram("repair_worker_latency_milliseconds", "Repair processing latency", msBuckets)
	m.workerErrors = m.counter("repair_worker_errors_total", "Repair attempts that failed")
	m.workerRepaired = m.counter("repair_worker_repaired_total", "Groups repaired")
	m.workerRequeued = m.counter("repair_worker_requeued_total", "Groups requeued after a failed repair")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request latency",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause", msBuckets)
}

// RecordResultSubmitted counts an accepted result. kind is "individual" or "relay".
func RecordResultSubmitted(kind string) {
	globalManager.resultsSubmitted.WithLabelValues(kind).Inc()
}

// RecordResultRejected counts a rejected result.
func RecordResultRejected(reason string) {
	globalManager.resultsRejected.WithLabelValues(reason).Inc()
}

// RecordResultDeleted counts a deleted result.
func RecordResultDeleted() {
	globalManager.resultsDeleted.Inc()
}

// RecordRecompute records one group recalculation.
func RecordRecompute(trigger string, latencyMs float64, failed bool) {
	globalManager.recomputeRuns.WithLabelValues(trigger).Inc()
	globalManager.recomputeLatency.Observe(latencyMs)
	if failed {
		globalManager.recomputeFailures.WithLabelValues(trigger).Inc()
	}
}

// RecordRankingWrites adds n position and points writes.
func RecordRankingWrites(n int) {
	globalManager.rankingWrites.Add(float64(n))
}

// RecordAggregationSkip counts a record left out of a total.
func RecordAggregationSkip(reason string) {
	globalManager.aggregationSkips.WithLabelValues(reason).Inc()
}

// UpdateCatalogTotals sets the athlete, event and result gauges.
func UpdateCatalogTotals(athletes, events, results int) {
	globalManager.athletesTotal.Set(float64(athletes))
	globalManager.eventsTotal.Set(float64(events))
	globalManager.resultsTotal.Set(float64(results))
}

// UpdateQueueSize sets the repair queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the repair queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts a queued group.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue counts a dequeued group and how long it waited.
func RecordQueueDequeue(waitMs float64) {
	globalManager.queueDequeue.Inc()
	globalManager.queueWaitMillis.Observe(waitMs)
}

// RecordQueueCoalesced counts a repair request merged into a queued one.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// RecordQueueRejected counts a repair request that could not be queued.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerCount sets the number of repair workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy repair workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records one repair attempt.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed repair attempt.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerRepaired counts a repaired group.
func RecordWorkerRepaired() {
	globalManager.workerRepaired.Inc()
}

// RecordWorkerRequeued counts a group put back on the queue.
func RecordWorkerRequeued() {
	globalManager.workerRequeued.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry all service metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
