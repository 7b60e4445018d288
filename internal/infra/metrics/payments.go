package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		paymentsProcessedTotal,
		checkoutsStartedTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound gateway notifications by kind (payment/merchant_order/unknown).",
		},
		[]string{"kind"},
	)

	paymentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Payment notifications by outcome (activated/duplicate/ignored/unresolved/error).",
		},
		[]string{"outcome"},
	)

	checkoutsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_started_total",
			Help: "Checkout sessions created with the payment gateway.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncWebhookEvent(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	webhookEventsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncPaymentProcessed(outcome string) {
	paymentsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCheckoutStarted() { checkoutsStartedTotal.Inc() }
