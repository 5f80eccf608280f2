package lifecycle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	casesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Cases created by category and severity",
		},
		[]string{"category", "severity"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "case_status_transitions_total",
			Help: "Applied case status transitions",
		},
		[]string{"from", "to"},
	)

	evidenceAttached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_attached_total",
			Help: "Evidence items attached by type",
		},
		[]string{"type"},
	)

	evidenceRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_rejected_total",
			Help: "Evidence uploads rejected by type and reason",
		},
		[]string{"type", "reason"},
	)

	custodyEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_events_total",
			Help: "Chain of custody entries appended by action",
		},
		[]string{"action"},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the lifecycle collectors with the default
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(casesCreated, statusTransitions, evidenceAttached, evidenceRejected, custodyEvents)
	})
}
