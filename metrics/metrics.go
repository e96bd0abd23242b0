// Package metrics exposes the Prometheus instrumentation for round
// outcomes, alerts, and vote counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors a Coordinator reports to. The zero value is
// not usable; construct with New or NoOp.
type Metrics struct {
	rounds   *prometheus.CounterVec
	alerts   *prometheus.CounterVec
	excluded prometheus.Counter
	votes    prometheus.Histogram
}

// New registers the NBFT collectors against reg and returns a Metrics
// that reports to them. Passing a fresh prometheus.NewRegistry() keeps
// round-local metrics out of the default global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbft_rounds_total",
			Help: "Completed rounds, labeled by whether consensus was reached.",
		}, []string{"consensus"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nbft_alerts_total",
			Help: "Alerts observed across all groups, labeled by reason.",
		}, []string{"reason"}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nbft_groups_excluded_total",
			Help: "Groups excluded from a round's tally due to a self-referential alert.",
		}),
		votes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nbft_round_votes",
			Help:    "Weighted vote count received by the winning value per round.",
			Buckets: prometheus.LinearBuckets(0, 4, 10),
		}),
	}
	reg.MustRegister(m.rounds, m.alerts, m.excluded, m.votes)
	return m
}

// NoOp returns a Metrics whose methods discard all observations, for
// callers that don't need a registry (tests, one-off CLI runs).
func NoOp() *Metrics {
	return &Metrics{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "noop_rounds"}, []string{"consensus"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "noop_alerts"}, []string{"reason"}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_excluded"}),
		votes:    prometheus.NewHistogram(prometheus.HistogramOpts{Name: "noop_votes"}),
	}
}

// RoundCompleted records a round's consensus outcome.
func (m *Metrics) RoundCompleted(consensus bool) {
	m.rounds.WithLabelValues(boolLabel(consensus)).Inc()
}

// Alert records one alert observed for reason.
func (m *Metrics) Alert(reason string) {
	m.alerts.WithLabelValues(reason).Inc()
}

// AlertExcludedGroup records a group's exclusion from a round's tally.
func (m *Metrics) AlertExcludedGroup() {
	m.excluded.Inc()
}

// ObserveVotes records the winning value's weighted vote count.
func (m *Metrics) ObserveVotes(votes int) {
	m.votes.Observe(float64(votes))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
