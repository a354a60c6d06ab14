package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initConversionMetrics() {
	r.ConversionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_conversions_total",
			Help: "Total number of topology conversions",
		},
		[]string{"direction", "status"},
	)

	r.ConversionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topoconv_conversion_duration_seconds",
			Help:    "Topology conversion duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"direction"},
	)

	r.ElementsConverted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_elements_converted_total",
			Help: "Total number of topology elements converted",
		},
		[]string{"direction", "element"},
	)

	r.ElementsSkipped = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_elements_skipped_total",
			Help: "Total number of malformed or unresolvable elements skipped",
		},
		[]string{"direction", "reason"},
	)

	r.SGHopsReconstructed = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoconv_sg_hops_reconstructed_total",
			Help: "Total number of service hops reconstructed from flow tables",
		},
	)

	r.SGHopsSkipped = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoconv_sg_hops_skipped_total",
			Help: "Total number of flow rules skipped during hop reconstruction",
		},
		[]string{"reason"},
	)

	r.VLANAllocationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoconv_vlan_allocations_total",
			Help: "Total number of VLAN tag allocations",
		},
	)

	r.VLANExhaustionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoconv_vlan_exhaustions_total",
			Help: "Total number of failed allocations due to VLAN range exhaustion",
		},
	)
}
