// Package metrics exposes Prometheus instruments for the try-on session.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tryon"

// Metrics groups the session instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	generationRequests *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	busy               prometheus.Gauge
	uploads            *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generationRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Total number of backend generation calls",
			},
			[]string{"operation", "status"}, // status: success, error, discarded
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of backend generation calls in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"operation"},
		),
		busy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_busy",
				Help:      "1 while a generation or edit request is in flight",
			},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total number of image uploads by slot",
			},
			[]string{"slot", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.generationRequests, m.generationDuration, m.busy, m.uploads)
	}
	return m
}

func (m *Metrics) ObserveGeneration(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generationRequests.WithLabelValues(operation, status).Inc()
	m.generationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) SetBusy(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.busy.Set(1)
		return
	}
	m.busy.Set(0)
}

func (m *Metrics) ObserveUpload(slot, status string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(slot, status).Inc()
}
