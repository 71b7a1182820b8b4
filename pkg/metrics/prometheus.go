// Package metrics provides Prometheus metrics for the scout server and field
// client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared with callers.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeInserted  = "inserted"
	OutcomeDuplicate = "duplicate"

	OutcomeAdded    = "added"
	OutcomeReplaced = "replaced"
	OutcomeSkipped  = "skipped"

	OutcomeOK      = "ok"
	OutcomeOffline = "offline"
	OutcomeFailed  = "failed"
)

// Manager manages all Prometheus metrics for the scout processes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Server store
	storeWrites  *prometheus.CounterVec
	storeRecords *prometheus.GaugeVec
	bulkSyncSize prometheus.Histogram

	// Outbox
	outboxSize     prometheus.Gauge
	outboxEnqueued prometheus.Counter
	outboxDrained  prometheus.Counter

	// Sync engine
	syncCycles        *prometheus.CounterVec
	syncConnected     prometheus.Gauge
	syncLastSuccess   prometheus.Gauge
	syncCycleDuration prometheus.Histogram

	// Import
	importRecords  *prometheus.CounterVec
	scanDuplicates prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the process-wide manager on a fresh registry with opts
// applied. Call it once at startup, before anything is recorded or served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "sync",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.storeWrites = auto.NewCounterVec(
		m.counterOpts("store_writes_total", "Record writes reaching the server store by kind and outcome"),
		[]string{"kind", "outcome"},
	)
	m.storeRecords = auto.NewGaugeVec(
		m.gaugeOpts("store_records", "Records held by the server store"),
		[]string{"kind"},
	)
	m.bulkSyncSize = auto.NewHistogram(
		m.histogramOpts("bulk_sync_items", "Items per bulk sync request", []float64{1, 2, 5, 10, 25, 50, 100, 250, 500}),
	)

	m.outboxSize = auto.NewGauge(m.gaugeOpts("outbox_size", "Writes waiting in the local outbox"))
	m.outboxEnqueued = auto.NewCounter(m.counterOpts("outbox_enqueued_total", "Writes appended to the local outbox"))
	m.outboxDrained = auto.NewCounter(m.counterOpts("outbox_drained_total", "Writes removed from the outbox after a successful sync"))

	m.syncCycles = auto.NewCounterVec(
		m.counterOpts("cycles_total", "Sync cycles by outcome"),
		[]string{"outcome"},
	)
	m.syncConnected = auto.NewGauge(m.gaugeOpts("connected", "1 when the last health probe reached the server"))
	m.syncLastSuccess = auto.NewGauge(m.gaugeOpts("last_success_unix", "Unix time of the last full refresh"))
	m.syncCycleDuration = auto.NewHistogram(
		m.histogramOpts("cycle_duration_milliseconds", "Duration of one sync cycle in milliseconds", m.histogramBuckets),
	)

	m.importRecords = auto.NewCounterVec(
		m.counterOpts("import_records_total", "Records offered by QR import by outcome"),
		[]string{"outcome"},
	)
	m.scanDuplicates = auto.NewCounter(m.counterOpts("scan_duplicates_total", "QR payloads ignored because the session already saw them"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordStoreWrite counts one pit or match write with its outcome.
func RecordStoreWrite(kind, outcome string) {
	globalManager.storeWrites.WithLabelValues(kind, outcome).Inc()
}

// UpdateStoreRecords sets the number of records held for kind.
func UpdateStoreRecords(kind string, count int) {
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordBulkSyncSize observes the number of items in one bulk sync.
func RecordBulkSyncSize(n int) {
	globalManager.bulkSyncSize.Observe(float64(n))
}

// UpdateOutboxSize sets the number of pending outbox writes.
func UpdateOutboxSize(size int) {
	globalManager.outboxSize.Set(float64(size))
}

// RecordOutboxEnqueue increments the enqueue counter.
func RecordOutboxEnqueue() {
	globalManager.outboxEnqueued.Inc()
}

// RecordOutboxDrained adds n drained writes.
func RecordOutboxDrained(n int) {
	globalManager.outboxDrained.Add(float64(n))
}

// RecordSyncCycle counts one sync cycle and observes its duration.
func RecordSyncCycle(outcome string, d time.Duration) {
	globalManager.syncCycles.WithLabelValues(outcome).Inc()
	globalManager.syncCycleDuration.Observe(float64(d.Milliseconds()))
}

// UpdateConnected sets the connectivity gauge.
func UpdateConnected(connected bool) {
	if connected {
		globalManager.syncConnected.Set(1)
		return
	}
	globalManager.syncConnected.Set(0)
}

// UpdateLastSuccess records the time of the last full refresh.
func UpdateLastSuccess(t time.Time) {
	globalManager.syncLastSuccess.Set(float64(t.Unix()))
}

// RecordImport adds n records with the given import outcome.
func RecordImport(outcome string, n int) {
	if n > 0 {
		globalManager.importRecords.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordScanDuplicate counts a payload ignored by the scan session.
func RecordScanDuplicate() {
	globalManager.scanDuplicates.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
