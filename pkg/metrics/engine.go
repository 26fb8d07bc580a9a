package metrics

import (
	"time"

	"github.com/marmos91/dittosync/pkg/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics is the Prometheus implementation of engine.Metrics.
//
// It collects:
//   - Object counts by outcome
//   - Per-object processing latency
//   - Objects currently in flight
type engineMetrics struct {
	objectsTotal    *prometheus.CounterVec
	objectDuration  prometheus.Histogram
	objectsInFlight prometheus.Gauge
}

// NewEngineMetrics creates a Prometheus-backed engine.Metrics registered on
// the global registry.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// leaves the engine on its no-op implementation.
func NewEngineMetrics() engine.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newEngineMetrics(GetRegistry())
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	return &engineMetrics{
		objectsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosync_objects_total",
				Help: "Total number of objects processed by status",
			},
			[]string{"status"},
		),
		objectDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittosync_object_duration_seconds",
				Help: "Time from loading an object to releasing it",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
				},
			},
		),
		objectsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittosync_objects_in_flight",
				Help: "Current number of objects being processed",
			},
		),
	}
}

// RecordObject implements engine.Metrics.RecordObject
func (m *engineMetrics) RecordObject(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.objectsTotal.WithLabelValues(status).Inc()
	m.objectDuration.Observe(duration.Seconds())
}

// RecordInFlight implements engine.Metrics.RecordInFlight
func (m *engineMetrics) RecordInFlight(delta int) {
	m.objectsInFlight.Add(float64(delta))
}
