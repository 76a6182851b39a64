// Package metrics provides Prometheus metrics for the attendance kiosk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus collectors for the kiosk.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	enabled        bool
	registry       prometheus.Registerer

	// Capture pipeline
	framesProcessed   prometheus.Counter
	detectionsTotal   prometheus.Counter
	frameLatency      prometheus.Histogram
	captureLoopActive prometheus.Gauge

	// Attendance
	attendanceOutcomes *prometheus.CounterVec
	sessionsStarted    prometheus.Counter
	overtimeEntries    prometheus.Counter

	// Identity store
	identitiesTotal prometheus.Gauge
	flushLatency    prometheus.Histogram

	// Enrollment
	enrollmentRequests  *prometheus.CounterVec
	enrollmentQueueSize prometheus.Gauge

	// Ops HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "kiosk",
		subsystem:      "attendance",
		latencyBuckets: DefaultLatencyBuckets,
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "frames_processed_total",
		Help:        "Total number of camera frames run through the detector",
	})

	m.detectionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "detections_total",
		Help:        "Total number of face detections above the confidence threshold",
	})

	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "frame_processing_milliseconds",
		Help:        "Time spent detecting and evaluating a single frame",
		Buckets:     m.latencyBuckets,
	})

	m.captureLoopActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "capture_loop_active",
		Help:        "1 while the camera capture loop is running",
	})

	m.attendanceOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			ConstLabels: m.constLabels,
			Name:        "outcomes_total",
			Help:        "Attendance decisions by result",
		},
		[]string{"result"},
	)

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "sessions_started_total",
		Help:        "Total number of attendance sessions started",
	})

	m.overtimeEntries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "overtime_entries_total",
		Help:        "Total number of lines appended to the overtime report",
	})

	m.identitiesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "identities_total",
		Help:        "Number of enrolled identities",
	})

	m.flushLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "store_flush_milliseconds",
		Help:        "Time spent rewriting the identity sink",
		Buckets:     m.latencyBuckets,
	})

	m.enrollmentRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			ConstLabels: m.constLabels,
			Name:        "enrollment_requests_total",
			Help:        "Enrollment requests by outcome",
		},
		[]string{"outcome"},
	)

	m.enrollmentQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		ConstLabels: m.constLabels,
		Name:        "enrollment_queue_size",
		Help:        "Faces waiting for operator enrollment",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			ConstLabels: m.constLabels,
			Name:        "http_requests_total",
			Help:        "Total number of ops HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			ConstLabels: m.constLabels,
			Name:        "http_request_duration_milliseconds",
			Help:        "Ops HTTP request duration in milliseconds",
			Buckets:     m.latencyBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			ConstLabels: m.constLabels,
			Name:        "errors_total",
			Help:        "Errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		ConstLabels: m.constLabels,
		Name:        "memory_usage_bytes",
		Help:        "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		ConstLabels: m.constLabels,
		Name:        "goroutines",
		Help:        "Number of running goroutines",
	})
}

// RecordFrameProcessed counts one frame and its processing latency.
func RecordFrameProcessed(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.framesProcessed.Inc()
	globalManager.frameLatency.Observe(latencyMs)
}

// RecordDetections adds n detections.
func RecordDetections(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.detectionsTotal.Add(float64(n))
}

// SetCaptureLoopActive flips the capture loop gauge.
func SetCaptureLoopActive(active bool) {
	if !globalManager.enabled {
		return
	}
	if active {
		globalManager.captureLoopActive.Set(1)
		return
	}
	globalManager.captureLoopActive.Set(0)
}

// RecordAttendanceOutcome counts an attendance decision.
func RecordAttendanceOutcome(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.attendanceOutcomes.WithLabelValues(result).Inc()
}

// RecordSessionStarted counts a new attendance session.
func RecordSessionStarted() {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsStarted.Inc()
}

// RecordOvertimeEntry counts an overtime report line.
func RecordOvertimeEntry() {
	if !globalManager.enabled {
		return
	}
	globalManager.overtimeEntries.Inc()
}

// UpdateIdentitiesTotal sets the enrolled identity gauge.
func UpdateIdentitiesTotal(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.identitiesTotal.Set(float64(count))
}

// RecordStoreFlushLatency observes an identity sink rewrite.
func RecordStoreFlushLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.flushLatency.Observe(latencyMs)
}

// RecordEnrollmentRequest counts an enrollment request by outcome
// (queued, enrolled, cancelled, rejected, failed, skipped).
func RecordEnrollmentRequest(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.enrollmentRequests.WithLabelValues(outcome).Inc()
}

// UpdateEnrollmentQueueSize sets the pending enrollment gauge.
func UpdateEnrollmentQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.enrollmentQueueSize.Set(float64(size))
}

// RecordHTTPRequest records an ops HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
