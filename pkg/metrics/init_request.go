package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRequestMetrics() {
	r.RequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_service_requests_total",
			Help: "Total number of service request documents generated",
		},
		[]string{"operation", "status"},
	)

	r.RequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topoconv_service_request_duration_seconds",
			Help:    "Service request generation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.FormulaParseFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoconv_formula_parse_failures_total",
			Help: "Total number of requirement formulas dropped as unparseable",
		},
	)
}
