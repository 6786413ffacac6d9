package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/journify/core/internal/application/store"
)

// Metrics holds the journal's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	Entries             prometheus.Gauge
	Tags                prometheus.Gauge
	Mutations           *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	SyncDuration        prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journify_entries",
			Help: "Number of journal entries held by the store",
		}),
		Tags: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journify_tags",
			Help: "Number of tags in the registry",
		}),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journify_store_mutations_total",
				Help: "Committed store mutations",
			},
			[]string{"op", "kind"},
		),
		PersistenceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journify_persistence_failures_total",
				Help: "Failed snapshot or remote writes",
			},
			[]string{"target"},
		),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "journify_sync_duration_seconds",
			Help:    "Duration of remote sync passes",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Entries,
		m.Tags,
		m.Mutations,
		m.PersistenceFailures,
		m.SyncDuration,
	)
	return m
}

// ObserveStore keeps the store gauges and mutation counter current. It
// returns the unsubscribe function.
func (m *Metrics) ObserveStore(st *store.Store) func() {
	snapshot := st.State()
	m.Entries.Set(float64(len(snapshot.Entries)))
	m.Tags.Set(float64(len(snapshot.Tags)))

	return st.Subscribe(func(state store.State, change store.Change) {
		m.Entries.Set(float64(len(state.Entries)))
		m.Tags.Set(float64(len(state.Tags)))
		m.Mutations.WithLabelValues(string(change.Op), string(change.Kind)).Inc()
	})
}

// PersistenceFailure returns a hook counting failures against target.
func (m *Metrics) PersistenceFailure(target string) func(error) {
	return func(error) {
		m.PersistenceFailures.WithLabelValues(target).Inc()
	}
}
