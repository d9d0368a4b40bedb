package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatdex",
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval pipeline duration in seconds (gate through ranking)",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatdex",
			Name:      "gate_decisions_total",
			Help:      "Keyword gate decisions",
		},
		[]string{"decision"}, // "accepted" / "rejected"
	)

	RetrievalDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatdex",
			Name:      "retrieval_degraded_total",
			Help:      "Retrievals degraded to empty evidence by adapter failures",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(GateDecisionsTotal)
	prometheus.MustRegister(RetrievalDegradedTotal)
	retrievalMetricsRegistered = true
}
