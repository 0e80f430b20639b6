// Package metrics registers tally-specific Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the tally domain metrics.
type Metrics struct {
	EntriesRecorded     prometheus.Counter
	AssignmentsRecorded prometheus.Counter
	SummaryRequests     *prometheus.CounterVec
	SummaryDuration     prometheus.Histogram
}

// New creates and registers the tally metrics.
func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canvass_status_entries_recorded_total",
			Help: "Status entries appended to the log.",
		}),
		AssignmentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canvass_category_assignments_recorded_total",
			Help: "Category assignments appended to the log.",
		}),
		SummaryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "canvass_summary_requests_total",
			Help: "Summary requests by requested scope.",
		}, []string{"scope"}),
		SummaryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "canvass_summary_duration_seconds",
			Help:    "Time to load a snapshot and roll up all requested scopes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
