package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records payment webhook intake outcomes.
type ReconciliationMetrics struct {
	events    *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewReconciliationMetrics registers the reconciliation metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment gateway events by intake outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_reconcile_conflicts_total",
		Help: "Conditional payment updates lost to a concurrent writer.",
	})
	reg.MustRegister(events, conflicts)
	return &ReconciliationMetrics{
		events:    events,
		conflicts: conflicts,
	}
}

// IncEvent increments the intake counter for the given outcome label.
func (m *ReconciliationMetrics) IncEvent(outcome string) {
	if m == nil || m.events == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.events.WithLabelValues(outcome).Inc()
}

// IncConflict counts a lost conditional update.
func (m *ReconciliationMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}
