package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal, providerLatency, webhookEvents)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchhub_payments_total",
			Help: "Payment provider calls by provider and outcome.",
		},
		[]string{"provider", "status"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watchhub_provider_call_seconds",
			Help:    "Payment provider call latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "call"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchhub_webhook_events_total",
			Help: "Verified webhook events by type.",
		},
		[]string{"type"},
	)
)

// IncPayment учитывает исход обращения к провайдеру: created, captured, declined, error.
func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

// ObserveProviderCall фиксирует длительность вызова провайдера.
func ObserveProviderCall(provider, call string, seconds float64) {
	providerLatency.WithLabelValues(norm(provider), norm(call)).Observe(seconds)
}

// IncWebhookEvent учитывает событие вебхука. Неизвестные типы сводятся в other.
func IncWebhookEvent(eventType string) {
	switch eventType {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "invalid_signature":
	default:
		eventType = "other"
	}
	webhookEvents.WithLabelValues(eventType).Inc()
}
