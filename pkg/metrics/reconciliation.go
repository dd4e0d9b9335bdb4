package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records webhook reconciliation outcomes.
type ReconciliationMetrics struct {
	duration  *prometheus.HistogramVec
	lineItems *prometheus.CounterVec
	webhooks  *prometheus.CounterVec
}

// NewReconciliationMetrics registers the reconciliation metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconciliation_duration_seconds",
		Help:    "Duration of order reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	lineItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_line_items_total",
		Help: "Reconciled order line items by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_webhooks_total",
		Help: "Processed webhook deliveries by result.",
	}, []string{"result"})
	reg.MustRegister(duration, lineItems, webhooks)
	return &ReconciliationMetrics{
		duration:  duration,
		lineItems: lineItems,
		webhooks:  webhooks,
	}
}

// ObserveDuration records the reconciliation duration for the given webhook topic.
func (r *ReconciliationMetrics) ObserveDuration(topic string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

// IncLineItem increments the line-item counter for the given outcome
// (recorded, duplicate, skipped, failed).
func (r *ReconciliationMetrics) IncLineItem(outcome string) {
	if r == nil || r.lineItems == nil {
		return
	}
	r.lineItems.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook increments the webhook counter for the given result
// (processed, duplicate, rejected).
func (r *ReconciliationMetrics) IncWebhook(result string) {
	if r == nil || r.webhooks == nil {
		return
	}
	r.webhooks.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
