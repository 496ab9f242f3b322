package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics counts payment link generation and webhook processing.
type BillingMetrics struct {
	links    *prometheus.CounterVec
	webhooks *prometheus.CounterVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	links := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_links_total",
		Help: "Payment link generation attempts, by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events received, by type and outcome.",
	}, []string{"type", "outcome"})
	reg.MustRegister(links, webhooks)
	return &BillingMetrics{
		links:    links,
		webhooks: webhooks,
	}
}

// IncLink increments the payment link counter for the outcome.
func (m *BillingMetrics) IncLink(outcome string) {
	if m == nil || m.links == nil {
		return
	}
	m.links.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook increments the webhook counter for the event type and outcome.
func (m *BillingMetrics) IncWebhook(eventType, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
