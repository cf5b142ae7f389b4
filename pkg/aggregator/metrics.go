package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal tracks handled stay requests by outcome
	// ("ok", "partial", "failed", "empty")
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_requests_total",
			Help: "Total aggregated stay requests by outcome",
		},
		[]string{"outcome"},
	)

	// supplierFailures tracks suppliers excluded from a result
	supplierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_supplier_failures_total",
			Help: "Total supplier failures isolated during aggregation",
		},
		[]string{"supplier"},
	)
)
