// Package metrics registers conflict-specific Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the conflict domain metrics.
type Metrics struct {
	Detected          prometheus.Counter
	Resolved          prometheus.Counter
	NotificationsSent prometheus.Counter
	ReconcileDuration prometheus.Histogram
}

// New creates the conflict metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the conflict metrics on the given registry. Tests pass a
// fresh registry so repeated construction never double-registers.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Detected: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_conflicts_detected_total",
			Help: "New status conflicts opened by detection.",
		}),
		Resolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_conflicts_resolved_total",
			Help: "Conflicts resolved by the admin.",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvass_conflict_notifications_sent_total",
			Help: "Notifications fanned out to watchers.",
		}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canvass_conflict_reconcile_duration_seconds",
			Help:    "Duration of a full-log reconciliation pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
