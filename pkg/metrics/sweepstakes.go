package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// SweepstakesMetrics counts webhook outcomes, lifecycle transitions and prize
// pool contributions. A nil receiver records nothing.
type SweepstakesMetrics struct {
	webhooks      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	contributions *prometheus.CounterVec
	contributed   *prometheus.CounterVec
}

// NewSweepstakesMetrics registers the sweepstakes collectors on reg.
func NewSweepstakesMetrics(reg prometheus.Registerer) *SweepstakesMetrics {
	if reg == nil {
		return &SweepstakesMetrics{}
	}
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_webhooks_total",
		Help: "Shopify webhook deliveries by topic and outcome.",
	}, []string{"topic", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entry_transitions_total",
		Help: "Entry lifecycle transitions applied.",
	}, []string{"transition"})
	contributions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prize_pool_contributions_total",
		Help: "Contributions applied to a prize pool.",
	}, []string{"period"})
	contributed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prize_pool_contributed_amount_total",
		Help: "Sum of contributions applied to a prize pool.",
	}, []string{"period"})
	reg.MustRegister(webhooks, transitions, contributions, contributed)
	return &SweepstakesMetrics{
		webhooks:      webhooks,
		transitions:   transitions,
		contributions: contributions,
		contributed:   contributed,
	}
}

// IncWebhook records one delivery for topic with the given outcome.
func (m *SweepstakesMetrics) IncWebhook(topic, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(topic), normalizeLabel(outcome)).Inc()
}

// IncTransition records a lifecycle transition such as "PENDING->ACTIVE".
func (m *SweepstakesMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

// ObserveContribution records an applied contribution.
func (m *SweepstakesMetrics) ObserveContribution(period string, amount decimal.Decimal) {
	if m == nil || m.contributions == nil {
		return
	}
	m.contributions.WithLabelValues(normalizeLabel(period)).Inc()
	m.contributed.WithLabelValues(normalizeLabel(period)).Add(amount.InexactFloat64())
}
