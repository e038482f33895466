package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		checkoutFallbackTotal,
		tokensIssuedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment confirmations by outcome (confirmed/rejected/bad_ticket).",
		},
		[]string{"outcome"},
	)

	checkoutFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_fallback_total",
			Help: "Checkouts routed to the dummy-pay path, by reason (unconfigured/psp_error).",
		},
		[]string{"reason"},
	)

	tokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_issued_total",
			Help: "Access tokens minted, by product.",
		},
		[]string{"product"},
	)
)

func IncPayment(outcome string) {
	paymentsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCheckoutFallback(reason string) {
	checkoutFallbackTotal.WithLabelValues(norm(reason)).Inc()
}

func IncTokenIssued(product string) {
	tokensIssuedTotal.WithLabelValues(norm(product)).Inc()
}
