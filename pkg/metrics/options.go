package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// DefaultLatencyBuckets spans sub-millisecond flushes up to a stalled frame.
var DefaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // read-only defaults

// WithNamespace overrides the "kiosk" namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "attendance" subsystem. System gauges keep
// their own subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the frame,
// flush and HTTP histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithKioskID labels every series with kiosk=id, for setups where several
// kiosks share one Prometheus.
func WithKioskID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.constLabels = prometheus.Labels{"kiosk": id}
		}
	}
}

// WithMetricsEnabled turns recording on or off.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRegistry registers the collectors on registry instead of the default
// registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
