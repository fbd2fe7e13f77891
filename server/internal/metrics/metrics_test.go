package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementCreated()
	m.IncrementCreated()
	m.IncrementCreateFailure("capacity")
	m.IncrementEvicted(CauseExpired)
	m.IncrementEvicted(CauseRevoked)
	m.IncrementEvicted(CauseRevoked)
	m.IncrementEvictionFailed()
	m.IncrementSweeps()
	m.SetActive(4)
	m.ObserveCreate(time.Now())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PeersCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CreateFailures.WithLabelValues("capacity")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PeersEvicted.WithLabelValues(CauseRevoked)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EvictionsFailed))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.PeersActive))

	n, err := testutil.GatherAndCount(reg, "tempnet_create_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
