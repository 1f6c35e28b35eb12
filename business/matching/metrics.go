package matching

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MatchJobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_jobs_processed_total",
			Help: "Count of match discovery jobs by kind and result.",
		},
		[]string{"kind", "result"},
	)

	MatchQueueDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_queue_dropped_total",
			Help: "Jobs dropped because the match queue was full.",
		},
	)

	MatchJobRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_job_retries_total",
			Help: "Match discovery job retry attempts.",
		},
	)

	MatchesFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_found_total",
			Help: "match.found events emitted.",
		},
	)

	MatchesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_rejected_total",
			Help: "match.rejected events emitted, by reason.",
		},
		[]string{"reason"},
	)

	MatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_queue_depth",
			Help: "Current depth of the match discovery queue.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MatchJobsProcessedTotal,
		MatchQueueDroppedTotal,
		MatchJobRetriesTotal,
		MatchesFoundTotal,
		MatchesRejectedTotal,
		MatchQueueDepth,
	)
}
