package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the synchronous match-search HTTP handlers
	MatchSearchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_search_latency_seconds",
		Help:    "Latency of the synchronous match search handlers",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of match search requests served
	MatchSearchRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "match_search_requests_total",
		Help: "Total number of match search requests",
	})

	AllocationRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_requests_total",
		Help: "Total number of allocation requests",
	})
)

func Init() {
	prometheus.MustRegister(
		MatchSearchLatency,
		MatchSearchRequests,
		AllocationRequests,
	)
}
