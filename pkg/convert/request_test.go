package convert

import (
	"testing"

	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/virtualizer"
	"github.com/nfvio/topoconv/pkg/vlan"
)

// buildTestRequest assembles a two-SAP service chain: SAP1 -> nf1 -> SAP2
// with a delay requirement spanning both hops.
func buildTestRequest(t *testing.T) *nffg.NFFG {
	t.Helper()
	g := nffg.New("req-1", "Chain request")

	sap1, err := g.AddSAP("SAP1", "SAP1")
	if err != nil {
		t.Fatalf("AddSAP failed: %v", err)
	}
	sp1 := sap1.AddPort("1")
	sap2, err := g.AddSAP("SAP2", "SAP2")
	if err != nil {
		t.Fatalf("AddSAP failed: %v", err)
	}
	sp2 := sap2.AddPort("1")

	nf, err := g.AddNF("nf1")
	if err != nil {
		t.Fatalf("AddNF failed: %v", err)
	}
	nf.FuncType = "firewall"
	np1 := nf.AddPort("1")
	np2 := nf.AddPort("2")

	if _, err := g.AddSGHop(&nffg.SGHop{
		ID: 1, Src: sp1, Dst: np1,
		Flowclass: "dl_type=0x0800",
		Bandwidth: nffg.Number(10),
	}); err != nil {
		t.Fatalf("AddSGHop failed: %v", err)
	}
	if _, err := g.AddSGHop(&nffg.SGHop{ID: 2, Src: np2, Dst: sp2}); err != nil {
		t.Fatalf("AddSGHop failed: %v", err)
	}

	delay := 20.0
	if _, err := g.AddRequirement(&nffg.Requirement{
		ID: "r1", Src: sp1, Dst: sp2, Delay: &delay, SGPath: []int{1, 2},
	}); err != nil {
		t.Fatalf("AddRequirement failed: %v", err)
	}
	g.AddMetadata("mode", "test")
	return g
}

func TestGenerateSBBBase(t *testing.T) {
	c := newTestConverter()
	base := c.GenerateSBBBase(buildTestRequest(t))

	if base.ID != SingleBiSBiSID {
		t.Errorf("base id = %q", base.ID)
	}
	sbb := base.Node(SingleBiSBiSID)
	if sbb == nil {
		t.Fatal("single node is missing")
	}
	if leaf(sbb.Type) != TypeBiSBiS {
		t.Errorf("node type = %q", leaf(sbb.Type))
	}
	if got, ok := sbb.MetadataValue("generated"); !ok || got != "true" {
		t.Errorf("generated marker = %q ok=%v", got, ok)
	}
	for _, id := range []string{"SAP1", "SAP2"} {
		p := sbb.Port(id)
		if p == nil {
			t.Fatalf("SAP port %s is missing", id)
		}
		if p.PortType != virtualizer.PortTypeSAP {
			t.Errorf("SAP port %s type = %q", id, p.PortType)
		}
	}
}

func TestServiceRequestInitWithoutBase(t *testing.T) {
	c := newTestConverter()
	req := buildTestRequest(t)
	out := c.ServiceRequestInit(req, nil, false)

	if out.ID != "req-1" || leaf(out.Name) != "Chain request" {
		t.Errorf("request identity: id=%q name=%q", out.ID, leaf(out.Name))
	}
	sbb := out.Nodes[0]

	vnf := sbb.NFInstance("nf1")
	if vnf == nil {
		t.Fatal("NF instance nf1 is missing")
	}
	if vnf.Port("1") == nil || vnf.Port("2") == nil {
		t.Errorf("NF ports = %v", vnf.Ports)
	}

	fe1 := sbb.Flowentry("1")
	if fe1 == nil {
		t.Fatal("flow entry 1 is missing")
	}
	if leaf(fe1.Priority) != "100" {
		t.Errorf("priority = %q", leaf(fe1.Priority))
	}
	if fe1.Port != sbb.Port("SAP1") {
		t.Errorf("hop source must be the SAP port handle, got %v", fe1.Port)
	}
	if fe1.Out != vnf.Port("1") {
		t.Errorf("hop destination must be the NF port handle, got %v", fe1.Out)
	}
	if leaf(fe1.Match) != "dl_type=0x0800" {
		t.Errorf("match = %q", leaf(fe1.Match))
	}
	if fe1.Resources == nil || leaf(fe1.Resources.Bandwidth) != "10" {
		t.Errorf("hop resources = %+v", fe1.Resources)
	}

	fe2 := sbb.Flowentry("2")
	if fe2 == nil {
		t.Fatal("flow entry 2 is missing")
	}
	if fe2.Port != vnf.Port("2") || fe2.Out != sbb.Port("SAP2") {
		t.Errorf("hop 2 endpoints: %v -> %v", fe2.Port, fe2.Out)
	}

	var formula string
	for _, cc := range sbb.Constraints.Constraint {
		if cc.ID == "delay-r1" {
			formula = cc.Formula
		}
	}
	if formula != "$d1+$d2|max|20" {
		t.Errorf("requirement formula = %q", formula)
	}

	if got, ok := out.MetadataValue("mode"); !ok || got != "test" {
		t.Errorf("request metadata mode = %q ok=%v", got, ok)
	}
}

func TestServiceRequestInitWithBase(t *testing.T) {
	c := newTestConverter()
	req := buildTestRequest(t)
	base := c.GenerateSBBBase(req)

	out := c.ServiceRequestInit(req, base, false)
	if out == base {
		t.Fatal("the base document must not be mutated")
	}
	if len(base.Nodes[0].NFInstances) != 0 {
		t.Error("NFs leaked into the base document")
	}
	if out.Nodes[0].NFInstance("nf1") == nil {
		t.Error("NF instance missing from the converted request")
	}

	// A reinstall run drops what the base already carries.
	again := c.ServiceRequestInit(req, out, true)
	if got := len(again.Nodes[0].Flowtable); got != 2 {
		t.Errorf("reinstall must rebuild the flowtable, got %d entries", got)
	}
	if got := len(again.Nodes[0].NFInstances); got != 1 {
		t.Errorf("reinstall must rebuild the NF list, got %d entries", got)
	}
}

func TestNormalizeHopIDs(t *testing.T) {
	g := nffg.New("ns1", "")
	sap1, _ := g.AddSAP("S1", "S1")
	p1 := sap1.AddPort("1")
	sap2, _ := g.AddSAP("S2", "S2")
	p2 := sap2.AddPort("1")

	// 4000 fits the tag space, 7000 does not and falls back to a scan.
	if _, err := g.AddSGHop(&nffg.SGHop{ID: 4000, Src: p1, Dst: p2}); err != nil {
		t.Fatalf("AddSGHop failed: %v", err)
	}
	if _, err := g.AddSGHop(&nffg.SGHop{ID: 7000, Src: p2, Dst: p1}); err != nil {
		t.Fatalf("AddSGHop failed: %v", err)
	}
	delay := 5.0
	if _, err := g.AddRequirement(&nffg.Requirement{
		ID: "r1", Src: p1, Dst: p2, Delay: &delay, SGPath: []int{4000, 7000},
	}); err != nil {
		t.Fatalf("AddRequirement failed: %v", err)
	}

	c := newTestConverter()
	alloc := vlan.NewAllocator(nil)
	if err := c.NormalizeHopIDs(g, alloc); err != nil {
		t.Fatalf("NormalizeHopIDs failed: %v", err)
	}
	if g.Hops[0].ID != 4000 {
		t.Errorf("in-range hop id must be kept, got %d", g.Hops[0].ID)
	}
	if g.Hops[1].ID != 1 {
		t.Errorf("out-of-range hop id must be reassigned, got %d", g.Hops[1].ID)
	}
	if got := g.Reqs[0].SGPath; got[0] != 4000 || got[1] != 1 {
		t.Errorf("requirement path not remapped: %v", got)
	}

	// Allocating the same abstract ids again reuses the registrations.
	if v, err := alloc.Allocate("7000", "ns1"); err != nil || v != 1 {
		t.Errorf("reallocation = %d, %v", v, err)
	}
	if alloc.Len() != 2 {
		t.Errorf("registry size = %d", alloc.Len())
	}
}

func TestServiceRequestDel(t *testing.T) {
	c := newTestConverter()
	req := buildTestRequest(t)
	installed := c.ServiceRequestInit(req, nil, false)

	out := c.ServiceRequestDel(req, installed)
	if out == installed {
		t.Fatal("the base document must not be mutated")
	}
	sbb := out.Nodes[0]
	if sbb.NFInstance("nf1") != nil {
		t.Error("NF instance must be removed")
	}
	if sbb.Flowentry("1") != nil || sbb.Flowentry("2") != nil {
		t.Error("flow entries must be removed")
	}
	if sbb.Port("SAP1") == nil || sbb.Port("SAP2") == nil {
		t.Error("SAP ports must survive the delete")
	}
	if installed.Nodes[0].NFInstance("nf1") == nil {
		t.Error("source document lost its NF instance")
	}
}
