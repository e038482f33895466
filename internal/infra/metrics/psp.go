package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(pspCallLatencyMs)
}

var pspCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "psp_call_latency_ms",
		Help:    "Provider call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
	},
	[]string{"gateway", "op", "success"},
)

// ObservePSPCall starts a latency observation; call the returned func with
// the call's outcome.
func ObservePSPCall(gateway, op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		pspCallLatencyMs.WithLabelValues(norm(gateway), norm(op), strconv.FormatBool(success)).Observe(sinceMs(start))
	}
}
