package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking Prometheus metrics.
var (
	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "peerloop",
			Name:      "ranking_duration_seconds",
			Help:      "Candidate ranking duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"strategy"},
	)

	RankingResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "peerloop",
			Name:      "ranking_results",
			Help:      "Number of results returned per ranking call",
			Buckets:   []float64{0, 1, 2, 5, 10, 12, 20},
		},
		[]string{"strategy"},
	)

	SimilarityDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "peerloop",
			Name:      "similarity_degraded_total",
			Help:      "Similarity calls degraded to zero after an embedding failure",
		},
	)
)

var rankingMetricsRegistered bool

// RegisterRankingMetrics registers Prometheus ranking metrics. Must be called once from main.
func RegisterRankingMetrics() {
	if rankingMetricsRegistered {
		return
	}
	prometheus.MustRegister(RankingDuration)
	prometheus.MustRegister(RankingResults)
	prometheus.MustRegister(SimilarityDegradedTotal)
	rankingMetricsRegistered = true
}

// ObserveRanking records duration and result count for one ranking call.
func ObserveRanking(strategy string, seconds float64, results int) {
	RankingDuration.WithLabelValues(strategy).Observe(seconds)
	RankingResults.WithLabelValues(strategy).Observe(float64(results))
}
