package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGeneration("tryon", "success", 2*time.Second)
	m.ObserveGeneration("tryon", "error", time.Second)
	m.ObserveGeneration("edit", "success", time.Second)
	m.ObserveUpload("user", "success")
	m.SetBusy(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationRequests.WithLabelValues("tryon", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationRequests.WithLabelValues("edit", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("user", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busy))

	m.SetBusy(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.busy))

	count, err := testutil.GatherAndCount(reg, "tryon_generation_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGeneration("tryon", "success", time.Second)
		m.ObserveUpload("garment", "error")
		m.SetBusy(true)
	})
}
