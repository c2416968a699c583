package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for AI re-rank outcomes.
const (
	AIOutcomeApplied  = "applied"
	AIOutcomeFallback = "fallback"
	AIOutcomeSkipped  = "skipped"
)

// Manager manages all Prometheus metrics for the staffing service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	matchRequests      *prometheus.CounterVec
	matchLatency       prometheus.Histogram
	candidatesReturned prometheus.Histogram
	poolSize           prometheus.Gauge

	// AI re-rank
	aiOutcomes *prometheus.CounterVec
	aiLatency  prometheus.Histogram

	// Allocation ledger
	allocationOps     *prometheus.CounterVec
	activeAllocations prometheus.Gauge

	// Audit queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Audit workers
	workerCount             prometheus.Gauge
	auditEventsWritten      prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
	m := &Manager{
		namespace:        "staffing",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.matchRequests = m.counterVec("match_requests_total",
		"Total number of match requests by result", "result")
	m.matchLatency = m.histogram("match_latency_milliseconds",
		"End to end match latency in milliseconds including the AI stage", m.histogramBuckets)
	m.candidatesReturned = m.histogram("match_candidates_returned",
		"Number of candidates returned per match request", []float64{0, 1, 2, 5, 10, 20, 50, 100})
	m.poolSize = m.gauge("match_pool_size",
		"Number of employees scored by the last match request")

	m.aiOutcomes = m.counterVec("ai_rerank_total",
		"AI re-rank attempts by outcome and reason", "outcome", "reason")
	m.aiLatency = m.histogram("ai_rerank_latency_milliseconds",
		"AI re-rank call latency in milliseconds", m.histogramBuckets)

	m.allocationOps = m.counterVec("allocation_operations_total",
		"Allocation ledger operations by operation and outcome", "operation", "outcome")
	m.activeAllocations = m.gauge("allocations_active",
		"Number of Active allocations")

	m.queueSize = m.gauge("audit_queue_size", "Current size of the audit event queue")
	m.queueCapacity = m.gauge("audit_queue_capacity", "Maximum audit queue capacity")
	m.queueEnqueueRate = m.counter("audit_queue_enqueue_total", "Total number of audit events enqueued")
	m.queueDequeueRate = m.counter("audit_queue_dequeue_total", "Total number of audit events dequeued")
	m.queueEnqueueErrors = m.counter("audit_queue_enqueue_errors_total", "Total number of dropped audit events")

	m.workerCount = m.gauge("audit_worker_count", "Current number of audit workers")
	m.auditEventsWritten = m.counter("audit_events_written_total", "Total number of audit events persisted")
	m.workerProcessingLatency = m.histogram("audit_worker_latency_milliseconds",
		"Audit worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("audit_worker_errors_total", "Total number of audit worker errors")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordMatchRequest counts a match request; result is "ok" or an error code.
func RecordMatchRequest(result string) {
	globalManager.matchRequests.WithLabelValues(result).Inc()
}

// RecordMatchLatency records match latency in milliseconds.
func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

// RecordCandidatesReturned records the size of a match response.
func RecordCandidatesReturned(n int) {
	globalManager.candidatesReturned.Observe(float64(n))
}

// UpdatePoolSize sets the number of employees scored by the last request.
func UpdatePoolSize(n int) {
	globalManager.poolSize.Set(float64(n))
}

// RecordAIOutcome counts one AI re-rank attempt.
func RecordAIOutcome(outcome, reason string) {
	globalManager.aiOutcomes.WithLabelValues(outcome, reason).Inc()
}

// RecordAILatency records AI call latency in milliseconds.
func RecordAILatency(latencyMs float64) {
	globalManager.aiLatency.Observe(latencyMs)
}

// RecordAllocationOp counts a ledger operation and its outcome.
func RecordAllocationOp(operation, outcome string) {
	globalManager.allocationOps.WithLabelValues(operation, outcome).Inc()
}

// AddActiveAllocations moves the active allocations gauge by delta.
func AddActiveAllocations(delta int) {
	globalManager.activeAllocations.Add(float64(delta))
}

// UpdateActiveAllocations sets the active allocations gauge.
func UpdateActiveAllocations(n int) {
	globalManager.activeAllocations.Set(float64(n))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordAuditEventWritten increments the persisted audit events counter.
func RecordAuditEventWritten() {
	globalManager.auditEventsWritten.Inc()
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
