package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes the ingestion pipeline instruments.
type Metrics struct {
	EventsEnqueued  *prometheus.CounterVec
	EventsProcessed *prometheus.CounterVec
	Duplicates      prometheus.Counter
	SpamDropped     prometheus.Counter
	DeadLettered    *prometheus.CounterVec
	Retries         prometheus.Counter
	LockContention  prometheus.Counter
	ProcessingTime  prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the instruments on the given registerer. Tests
// pass a fresh registry to avoid duplicate-registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaseline_inbound_events_enqueued_total",
			Help: "Inbound provider events durably enqueued, by channel.",
		}, []string{"channel"}),
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaseline_inbound_events_processed_total",
			Help: "Events reaching a terminal pipeline state, by outcome.",
		}, []string{"outcome"}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaseline_inbound_duplicates_total",
			Help: "Redeliveries rejected by the dedup guard.",
		}),
		SpamDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaseline_inbound_spam_total",
			Help: "Events short-circuited by the spam gate.",
		}),
		DeadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaseline_inbound_dead_letters_total",
			Help: "Events written to the dead-letter store, by reason.",
		}, []string{"reason"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaseline_inbound_retries_total",
			Help: "Events released back to the queue for redelivery.",
		}),
		LockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaseline_inbound_lock_contention_total",
			Help: "Events deferred because the originator lock was held.",
		}),
		ProcessingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaseline_inbound_processing_seconds",
			Help:    "End-to-end processing duration per event.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.EventsEnqueued,
		m.EventsProcessed,
		m.Duplicates,
		m.SpamDropped,
		m.DeadLettered,
		m.Retries,
		m.LockContention,
		m.ProcessingTime,
	)
	return m
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
