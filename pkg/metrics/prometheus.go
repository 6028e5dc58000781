// Package metrics provides Prometheus metrics for the studybuddy guidance service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Outcome labels for guidance requests.
const (
	OutcomeServed  = "served"
	OutcomeWarning = "warning"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Guidance pipeline
	guidanceRequests   *prometheus.CounterVec
	guidanceLatency    prometheus.Histogram
	classifierLatency  *prometheus.HistogramVec
	classifierErrors   *prometheus.CounterVec
	emotionsDetected   *prometheus.CounterVec
	levelsDetected     *prometheus.CounterVec
	examPlansGenerated prometheus.Counter

	// Classification cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	// Journal write-behind
	journalQueueSize     prometheus.Gauge
	journalQueueCapacity prometheus.Gauge
	journalEnqueued      prometheus.Counter
	journalDropped       prometheus.Counter
	journalWrites        prometheus.Counter
	journalWriteErrors   prometheus.Counter
	journalWriteLatency  prometheus.Histogram
	journalPruned        prometheus.Counter
	journalEntries       prometheus.Gauge
	workerCount          prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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
		namespace:        "studybuddy",
		subsystem:        "guidance",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge metrics should be refreshed by callers.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.guidanceRequests = m.counterVec("requests_total",
		"Guidance requests by outcome (served, warning, invalid, failed)", "outcome")
	m.guidanceLatency = m.histogram("latency_milliseconds",
		"End-to-end guidance latency in milliseconds", m.histogramBuckets)
	m.classifierLatency = m.histogramVec("classifier_latency_milliseconds",
		"Emotion classifier latency in milliseconds", "backend")
	m.classifierErrors = m.counterVec("classifier_errors_total",
		"Emotion classifier failures", "backend")
	m.emotionsDetected = m.counterVec("emotions_detected_total",
		"Top emotion label per served request", "label")
	m.levelsDetected = m.counterVec("levels_detected_total",
		"Detected study level per served request", "level")
	m.examPlansGenerated = m.counter("exam_plans_total",
		"Requests that produced a multi-day exam plan")

	m.cacheHits = m.counter("cache_hits_total", "Classification cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Classification cache misses")
	m.cacheSize = m.gauge("cache_entries", "Entries held by the classification cache")

	m.journalQueueSize = m.gauge("journal_queue_size", "Entries waiting in the journal queue")
	m.journalQueueCapacity = m.gauge("journal_queue_capacity", "Journal queue capacity")
	m.journalEnqueued = m.counter("journal_enqueued_total", "Entries accepted by the journal queue")
	m.journalDropped = m.counter("journal_dropped_total", "Entries dropped because the journal queue was full")
	m.journalWrites = m.counter("journal_writes_total", "Entries written to the journal store")
	m.journalWriteErrors = m.counter("journal_write_errors_total", "Failed journal writes")
	m.journalWriteLatency = m.histogram("journal_write_latency_milliseconds",
		"Journal store append latency in milliseconds", m.histogramBuckets)
	m.journalPruned = m.counter("journal_pruned_total", "Entries removed by retention")
	m.journalEntries = m.gauge("journal_entries", "Entries currently stored in the journal")
	m.workerCount = m.gauge("journal_workers", "Journal writer goroutines")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordGuidance counts a guidance request by outcome.
func RecordGuidance(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.guidanceRequests.WithLabelValues(outcome).Inc()
}

// RecordGuidanceLatency records end-to-end guidance latency.
func RecordGuidanceLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.guidanceLatency.Observe(latencyMs)
}

// RecordClassifierLatency records the latency of one classifier call.
func RecordClassifierLatency(backend string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordClassifierError counts a classifier failure.
func RecordClassifierError(backend string) {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierErrors.WithLabelValues(backend).Inc()
}

// RecordEmotion counts the top emotion of a served request.
func RecordEmotion(label string) {
	if !globalManager.enabled {
		return
	}
	globalManager.emotionsDetected.WithLabelValues(label).Inc()
}

// RecordLevel counts the detected study level of a served request.
func RecordLevel(level string) {
	if !globalManager.enabled {
		return
	}
	globalManager.levelsDetected.WithLabelValues(level).Inc()
}

// RecordExamPlan counts a generated exam plan.
func RecordExamPlan() {
	if !globalManager.enabled {
		return
	}
	globalManager.examPlansGenerated.Inc()
}

// RecordCacheHit counts a classification cache hit.
func RecordCacheHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss counts a classification cache miss.
func RecordCacheMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.Inc()
}

// UpdateCacheSize sets the classification cache entry count.
func UpdateCacheSize(size int) {
	globalManager.cacheSize.Set(float64(size))
}

// UpdateQueueSize sets the current journal queue length.
func UpdateQueueSize(size int) {
	globalManager.journalQueueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the journal queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.journalQueueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted journal entry.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.journalEnqueued.Inc()
}

// RecordQueueDrop counts a journal entry dropped on a full queue.
func RecordQueueDrop() {
	if !globalManager.enabled {
		return
	}
	globalManager.journalDropped.Inc()
}

// RecordJournalWrite counts a stored journal entry and its latency.
func RecordJournalWrite(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.journalWrites.Inc()
	globalManager.journalWriteLatency.Observe(latencyMs)
}

// RecordJournalWriteError counts a failed journal write.
func RecordJournalWriteError() {
	if !globalManager.enabled {
		return
	}
	globalManager.journalWriteErrors.Inc()
}

// RecordJournalPruned counts entries removed by retention.
func RecordJournalPruned(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.journalPruned.Add(float64(n))
}

// UpdateJournalEntries sets the stored journal entry count.
func UpdateJournalEntries(count int) {
	globalManager.journalEntries.Set(float64(count))
}

// UpdateWorkerCount sets the number of journal writers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// Configure rebuilds the global manager with opts on a fresh registry.
// It must run before any handler captures GetRegistry.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// RefreshInterval is how often callers should refresh gauge metrics.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
