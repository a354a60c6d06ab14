package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDiffMetrics() {
	r.DiffsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_diffs_total",
			Help: "Total number of tree diffs computed",
		},
		[]string{"result"},
	)

	r.DiffDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topoconv_diff_duration_seconds",
			Help:    "Tree diff computation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)
}
