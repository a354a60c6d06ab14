package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the converter core
type Registry struct {
	// Conversion Metrics
	ConversionsTotal   *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec
	ElementsConverted  *prometheus.CounterVec
	ElementsSkipped    *prometheus.CounterVec

	// SG-Hop Reconstruction Metrics
	SGHopsReconstructed prometheus.Counter
	SGHopsSkipped       *prometheus.CounterVec

	// VLAN Allocation Metrics
	VLANAllocationsTotal prometheus.Counter
	VLANExhaustionsTotal prometheus.Counter

	// Diff Metrics
	DiffsTotal   *prometheus.CounterVec
	DiffDuration prometheus.Histogram

	// Service Request Metrics
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	FormulaParseFailures prometheus.Counter

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initConversionMetrics()
	r.initDiffMetrics()
	r.initRequestMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
