package metrics

import (
	"time"
)

// Conversion directions used as metric label values.
const (
	DirectionParse = "tree_to_graph"
	DirectionDump  = "graph_to_tree"
)

// RecordConversion records a completed conversion with its duration
func (r *Registry) RecordConversion(direction, status string, duration time.Duration) {
	r.ConversionsTotal.WithLabelValues(direction, status).Inc()
	r.ConversionDuration.WithLabelValues(direction).Observe(duration.Seconds())
}

// RecordElement records one converted topology element
func (r *Registry) RecordElement(direction, element string) {
	r.ElementsConverted.WithLabelValues(direction, element).Inc()
}

// RecordSkipped records a malformed element dropped during conversion
func (r *Registry) RecordSkipped(direction, reason string) {
	r.ElementsSkipped.WithLabelValues(direction, reason).Inc()
}

// RecordSGHop records one reconstructed service hop
func (r *Registry) RecordSGHop() {
	r.SGHopsReconstructed.Inc()
}

// RecordSGHopSkipped records a flow rule skipped during hop reconstruction
func (r *Registry) RecordSGHopSkipped(reason string) {
	r.SGHopsSkipped.WithLabelValues(reason).Inc()
}

// RecordFormulaFailure records a requirement formula that could not be
// parsed back
func (r *Registry) RecordFormulaFailure() {
	r.FormulaParseFailures.Inc()
}

// RecordVLANAllocation records a successful VLAN tag allocation
func (r *Registry) RecordVLANAllocation() {
	r.VLANAllocationsTotal.Inc()
}

// RecordVLANExhaustion records a failed allocation on an exhausted range
func (r *Registry) RecordVLANExhaustion() {
	r.VLANExhaustionsTotal.Inc()
}

// RecordDiff records a computed tree diff
func (r *Registry) RecordDiff(empty bool, duration time.Duration) {
	result := "changed"
	if empty {
		result = "empty"
	}
	r.DiffsTotal.WithLabelValues(result).Inc()
	r.DiffDuration.Observe(duration.Seconds())
}

// RecordRequest records a service request generation
func (r *Registry) RecordRequest(operation, status string, duration time.Duration) {
	r.RequestsTotal.WithLabelValues(operation, status).Inc()
	r.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
