package metrics

import (
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.ConversionsTotal == nil {
		t.Error("ConversionsTotal not initialized")
	}
	if r.ConversionDuration == nil {
		t.Error("ConversionDuration not initialized")
	}
	if r.SGHopsReconstructed == nil {
		t.Error("SGHopsReconstructed not initialized")
	}
	if r.DiffsTotal == nil {
		t.Error("DiffsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordConversion(t *testing.T) {
	r := NewRegistry()

	r.RecordConversion(DirectionParse, "success", 10*time.Millisecond)
	r.RecordConversion(DirectionParse, "success", 20*time.Millisecond)
	r.RecordConversion(DirectionDump, "partial", 5*time.Millisecond)

	families, err := r.registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	total := findFamily(families, "topoconv_conversions_total")
	if total == nil {
		t.Fatal("topoconv_conversions_total not found")
	}
	if got := counterValue(total, "direction", DirectionParse); got != 2 {
		t.Errorf("parse conversions = %v, want 2", got)
	}
	if got := counterValue(total, "direction", DirectionDump); got != 1 {
		t.Errorf("dump conversions = %v, want 1", got)
	}
}

func TestRecordVLANMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordVLANAllocation()
	r.RecordVLANAllocation()
	r.RecordVLANExhaustion()

	families, err := r.registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	alloc := findFamily(families, "topoconv_vlan_allocations_total")
	if alloc == nil || alloc.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Error("expected 2 VLAN allocations recorded")
	}
	exhausted := findFamily(families, "topoconv_vlan_exhaustions_total")
	if exhausted == nil || exhausted.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Error("expected 1 VLAN exhaustion recorded")
	}
}

func TestRecordDiff(t *testing.T) {
	r := NewRegistry()

	r.RecordDiff(true, time.Millisecond)
	r.RecordDiff(false, time.Millisecond)
	r.RecordDiff(false, time.Millisecond)

	families, err := r.registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	total := findFamily(families, "topoconv_diffs_total")
	if total == nil {
		t.Fatal("topoconv_diffs_total not found")
	}
	if got := counterValue(total, "result", "empty"); got != 1 {
		t.Errorf("empty diffs = %v, want 1", got)
	}
	if got := counterValue(total, "result", "changed"); got != 2 {
		t.Errorf("changed diffs = %v, want 2", got)
	}
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if strings.EqualFold(f.GetName(), name) {
			return f
		}
	}
	return nil
}

func counterValue(family *dto.MetricFamily, labelName, labelValue string) float64 {
	var sum float64
	for _, m := range family.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == labelName && l.GetValue() == labelValue {
				sum += m.GetCounter().GetValue()
			}
		}
	}
	return sum
}
