package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Eviction causes used as the "cause" label.
const (
	CauseExpired    = "expired"
	CauseRevoked    = "revoked"
	CauseReconciled = "reconciled"
)

// Metrics tracks peer issuance and reclamation.
type Metrics struct {
	PeersActive     prometheus.Gauge
	PeersCreated    prometheus.Counter
	CreateFailures  *prometheus.CounterVec
	PeersEvicted    *prometheus.CounterVec
	EvictionsFailed prometheus.Counter
	CreateDuration  prometheus.Histogram
	SweepsCompleted prometheus.Counter
}

// New registers all metrics with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PeersActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "tempnet_peers_active",
			Help: "Number of live peers in the registry",
		}),
		PeersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "tempnet_peers_created_total",
			Help: "Total number of peers issued",
		}),
		CreateFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tempnet_create_failures_total",
			Help: "Total number of failed create operations by reason",
		}, []string{"reason"}),
		PeersEvicted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tempnet_peers_evicted_total",
			Help: "Total number of peers removed by cause",
		}, []string{"cause"}),
		EvictionsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "tempnet_evictions_failed_total",
			Help: "Total number of evictions where the interface removal failed",
		}),
		CreateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempnet_create_duration_seconds",
			Help:    "Duration of create operations including interface activation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SweepsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tempnet_sweeps_total",
			Help: "Total number of expiry sweeps run",
		}),
	}
}

func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCreated() {
	m.PeersCreated.Inc()
}

func (m *Metrics) IncrementCreateFailure(reason string) {
	m.CreateFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementEvicted(cause string) {
	m.PeersEvicted.WithLabelValues(cause).Inc()
}

func (m *Metrics) IncrementEvictionFailed() {
	m.EvictionsFailed.Inc()
}

func (m *Metrics) IncrementSweeps() {
	m.SweepsCompleted.Inc()
}

func (m *Metrics) SetActive(n int) {
	m.PeersActive.Set(float64(n))
}
