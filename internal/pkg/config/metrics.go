package config

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	configLoadTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "feedwatch_config_load_timestamp_seconds",
		Help: "Unix timestamp of the last configuration load",
	}, []string{"component"})

	configValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwatch_config_validation_errors_total",
		Help: "Total number of configuration values rejected by validation",
	}, []string{"component", "field"})

	configFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwatch_config_fallbacks_total",
		Help: "Total number of configuration values replaced by their default",
	}, []string{"component", "field"})

	configFallbackActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "feedwatch_config_fallback_active",
		Help: "1 if any configuration fallback is active for the component, 0 otherwise",
	}, []string{"component"})
)

// ConfigMetrics records configuration loading for one component.
// Several instances for the same component share their series.
type ConfigMetrics struct {
	component string
	active    bool
}

// NewConfigMetrics returns metrics labelled with component.
func NewConfigMetrics(component string) *ConfigMetrics {
	return &ConfigMetrics{component: component}
}

// RecordLoadTimestamp marks a completed load and publishes the fallback gauge.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	configLoadTimestamp.WithLabelValues(m.component).SetToCurrentTime()
	if m.active {
		configFallbackActive.WithLabelValues(m.component).Set(1)
	} else {
		configFallbackActive.WithLabelValues(m.component).Set(0)
	}
}

// RecordValidationError counts a rejected value for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	configValidationErrors.WithLabelValues(m.component, field).Inc()
}

// RecordFallback counts a default substituted for field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.active = true
	configFallbacks.WithLabelValues(m.component, field).Inc()
}

// FallbackActive reports whether any fallback was recorded.
func (m *ConfigMetrics) FallbackActive() bool {
	return m.active
}

// Track logs and counts res when it fell back, and returns its value.
func Track[T any](m *ConfigMetrics, logger *slog.Logger, field string, res LoadResult[T]) T {
	if res.FallbackApplied {
		m.RecordValidationError(field)
		m.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("component", m.component),
			slog.String("field", field),
			slog.String("warning", res.Warning))
	}
	return res.Value
}
