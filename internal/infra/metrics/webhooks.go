package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookEventsTotal)
}

var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "PSP webhook callbacks received, by persistence result.",
	},
	[]string{"persisted"},
)

func IncWebhookEvent(persisted bool) {
	if persisted {
		webhookEventsTotal.WithLabelValues("true").Inc()
		return
	}
	webhookEventsTotal.WithLabelValues("false").Inc()
}
