package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocations_total",
			Help: "Allocation attempts by result.",
		},
		[]string{"result"},
	)

	AllocationsReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "allocations_released_total",
			Help: "Expired reservations released back to available quantity.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AllocationsTotal,
		AllocationsReleasedTotal,
	)
}
