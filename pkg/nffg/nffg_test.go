package nffg

import (
	"errors"
	"testing"
)

func buildTestGraph(t *testing.T) *NFFG {
	t.Helper()
	g := New("test", "test topology")

	infra, err := g.AddInfra("BB1")
	if err != nil {
		t.Fatalf("AddInfra: %v", err)
	}
	infra.InfraType = "BiSBiS"
	p1 := infra.AddPort("1")
	dyn := infra.AddPort("BB1|NF1|0")

	sap, err := g.AddSAP("SAP1", "SAP1")
	if err != nil {
		t.Fatalf("AddSAP: %v", err)
	}
	sapPort := sap.AddPort("1")

	nf, err := g.AddNF("NF1")
	if err != nil {
		t.Fatalf("AddNF: %v", err)
	}
	nfPort := nf.AddPort("0")

	if _, _, err := g.AddUndirectedLink(sapPort, p1); err != nil {
		t.Fatalf("AddUndirectedLink: %v", err)
	}
	if _, _, err := g.AddDynamicLink(nfPort, dyn); err != nil {
		t.Fatalf("AddDynamicLink: %v", err)
	}
	return g
}

func TestDuplicateNodeID(t *testing.T) {
	g := New("t", "")
	if _, err := g.AddInfra("X"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := g.AddSAP("X", "")
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestPortOwnership(t *testing.T) {
	g := buildTestGraph(t)
	infra := g.Infra("BB1")
	p := infra.Port("1")
	if p == nil {
		t.Fatal("port 1 missing")
	}
	if p.Node() != &infra.Node {
		t.Errorf("port back-reference broken")
	}
	// AddPort with an existing id returns the same port, never a duplicate.
	if again := infra.AddPort("1"); again != p {
		t.Errorf("AddPort must be idempotent per id")
	}
}

func TestDynamicPortResolution(t *testing.T) {
	g := buildTestGraph(t)

	nfPort := g.NFPortOfDynamicPort("BB1", "BB1|NF1|0")
	if nfPort == nil || nfPort.Node().ID != "NF1" || nfPort.ID != "0" {
		t.Fatalf("NFPortOfDynamicPort = %v", nfPort)
	}

	dyn := g.DynamicPortOfNFPort("NF1", "0")
	if dyn == nil || dyn.ID != "BB1|NF1|0" {
		t.Fatalf("DynamicPortOfNFPort = %v", dyn)
	}
}

func TestRunningNFs(t *testing.T) {
	g := buildTestGraph(t)
	nfs := g.RunningNFs("BB1")
	if len(nfs) != 1 || nfs[0].ID != "NF1" {
		t.Fatalf("RunningNFs = %v", nfs)
	}
}

func TestSGHopEndpointInvariant(t *testing.T) {
	g := buildTestGraph(t)
	infraPort := g.Infra("BB1").Port("1")
	sapPort := g.SAPByID("SAP1").Port("1")
	nfPort := g.NFByID("NF1").Port("0")

	if _, err := g.AddSGHop(&SGHop{ID: 1, Src: sapPort, Dst: infraPort}); err == nil {
		t.Fatal("SG hop onto an infra port must be rejected")
	}
	if _, err := g.AddSGHop(&SGHop{ID: 1, Src: sapPort, Dst: nfPort}); err != nil {
		t.Fatalf("valid SG hop rejected: %v", err)
	}
}

func TestFlowRuleLookup(t *testing.T) {
	g := buildTestGraph(t)
	infra := g.Infra("BB1")
	p := infra.Port("1")
	p.AddFlowRule(&FlowRule{ID: 10, Match: "in_port=1", Action: "output=BB1|NF1|0"})

	if got := len(infra.FlowRules()); got != 1 {
		t.Fatalf("FlowRules() = %d rules", got)
	}
	if fp := infra.FlowRulePort(10); fp != p {
		t.Errorf("FlowRulePort(10) = %v", fp)
	}
	if fp := infra.FlowRulePort(99); fp != nil {
		t.Errorf("FlowRulePort(99) should be nil")
	}

	// Same id replaces, keeping node-scoped uniqueness.
	p.AddFlowRule(&FlowRule{ID: 10, Match: "in_port=1", Action: "output=1"})
	if got := len(p.FlowRules); got != 1 {
		t.Errorf("duplicate rule id must replace, got %d rules", got)
	}
}

func TestIsDynamicPortID(t *testing.T) {
	cases := map[string]bool{
		"1":           false,
		"SAP1":        false,
		"BB1|NF1|0":   true,
		"65536":       true,
		"65535":       false,
		"EXTERNAL:17": false,
	}
	for id, want := range cases {
		if got := IsDynamicPortID(id); got != want {
			t.Errorf("IsDynamicPortID(%q) = %v, want %v", id, got, want)
		}
	}
	if !IsExternalPortID("EXTERNAL:17") {
		t.Errorf("EXTERNAL:17 must be recognized as external")
	}
}

func TestDelayMatrixOrdering(t *testing.T) {
	m := NewDelayMatrix()
	m.Add("2", "1", 4)
	m.Add("1", "2", 3)
	m.Add("1", "3", 5)

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() = %d", len(entries))
	}
	if entries[0].Src != "1" || entries[0].Dst != "2" {
		t.Errorf("entries not deterministically ordered: %v", entries)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d", m.Len())
	}
}
