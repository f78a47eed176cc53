package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics reports how a component's configuration was loaded. All
// series carry a constant component label:
//   - config_load_timestamp_seconds
//   - config_fallbacks_total{field}
//   - config_fallback_active
type ConfigMetrics struct {
	LoadTimestamp  prometheus.Gauge
	FallbacksTotal *prometheus.CounterVec
	FallbackActive prometheus.Gauge
}

// NewConfigMetrics creates the metrics for component and registers them with
// reg. A nil reg leaves them unregistered.
func NewConfigMetrics(reg prometheus.Registerer, component string) *ConfigMetrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"component": component}

	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "config_load_timestamp_seconds",
			Help:        "Unix timestamp of the last configuration load",
			ConstLabels: labels,
		}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "config_fallbacks_total",
			Help:        "Invalid configuration values replaced by their default, by field",
			ConstLabels: labels,
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "config_fallback_active",
			Help:        "1 when the last load used at least one default in place of an invalid value",
			ConstLabels: labels,
		}),
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() { m.LoadTimestamp.SetToCurrentTime() }

// RecordFallback counts one fallback for field.
func (m *ConfigMetrics) RecordFallback(field string) { m.FallbacksTotal.WithLabelValues(field).Inc() }

// SetFallbackActive sets the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	v := 0.0
	if active {
		v = 1
	}
	m.FallbackActive.Set(v)
}
