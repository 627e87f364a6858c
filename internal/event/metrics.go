package event

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dispatched events for Prometheus.
type Metrics struct {
	events     *prometheus.CounterVec
	syncedTags prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taggable",
			Name:      "events_total",
			Help:      "Tag events dispatched, by event name.",
		}, []string{"event"}),
		syncedTags: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taggable",
			Name:      "synced_tags",
			Help:      "Size of the resulting tag set per sync.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}
	reg.MustRegister(m.events, m.syncedTags)
	return m
}

// Listener returns a Listener that feeds the collectors.
func (m *Metrics) Listener() Listener {
	return func(_ context.Context, e Event) {
		m.events.WithLabelValues(e.Name()).Inc()
		if s, ok := e.(TagsSynced); ok {
			m.syncedTags.Observe(float64(len(s.Tags)))
		}
	}
}
