package convert

import (
	"strings"
	"testing"

	"github.com/nfvio/topoconv/pkg/config"
	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

func newTestConverter() *Converter {
	cfg := config.Default()
	cfg.ParseSGHops = true
	return New(cfg, logging.NewNopLogger(), nil)
}

// buildTestTree assembles a one-node document with a static port, a SAP
// port, an NF instance and a flow entry routing the NF to the SAP.
func buildTestTree() *virtualizer.Virtualizer {
	v := virtualizer.New("topo1", "Test topology")

	n := virtualizer.NewNode("BB1")
	n.Name = strp("bisbis1")
	n.Type = strp("BiSBiS")
	n.Resources = &virtualizer.SoftwareResource{
		CPU:     strp("10"),
		Mem:     strp("32"),
		Storage: strp("5"),
	}
	n.SetMetadata("bandwidth", "100")
	n.AddSupportedNF("firewall")

	n.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))
	sapPort := virtualizer.NewPort("SAP1", virtualizer.PortTypeSAP)
	sapPort.Name = strp("SAP:SAP1")
	n.AddPort(sapPort)

	nf := virtualizer.NewNode("nf1")
	nf.Type = strp("firewall")
	nf.Resources = &virtualizer.SoftwareResource{CPU: strp("2"), Mem: strp("4")}
	n.AddNFInstance(nf)
	nf.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))

	n.AddFlowentry(&virtualizer.Flowentry{
		ID:        "10",
		Port:      nf.Port("1"),
		Out:       n.Port("SAP1"),
		Match:     strp("dl_tag=0x0005"),
		Action:    strp("pop_tag"),
		Resources: &virtualizer.LinkResource{Delay: strp("5")},
	})

	v.AddNode(n)
	v.SetMetadata("origin", "test")
	return v
}

func TestParseVirtualizerTopology(t *testing.T) {
	c := newTestConverter()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	if g.ID != "topo1" || g.Name != "Test topology" {
		t.Errorf("document identity not transferred: id=%q name=%q", g.ID, g.Name)
	}
	if got := g.Metadata["origin"]; got != "test" {
		t.Errorf("root metadata origin = %q", got)
	}

	infra := g.Infra("BB1")
	if infra == nil {
		t.Fatal("infra node BB1 was not created")
	}
	if infra.Name != "bisbis1" || infra.InfraType != "BiSBiS" {
		t.Errorf("infra attrs: name=%q type=%q", infra.Name, infra.InfraType)
	}
	if cpu, ok := infra.Resources.CPU.Number(); !ok || cpu != 10 {
		t.Errorf("infra cpu = %v", infra.Resources.CPU)
	}
	if bw, ok := infra.Resources.Bandwidth.Number(); !ok || bw != 100 {
		t.Errorf("node bandwidth must come from metadata, got %v", infra.Resources.Bandwidth)
	}
	if len(infra.Supported) != 1 || infra.Supported[0] != "firewall" {
		t.Errorf("supported NFs = %v", infra.Supported)
	}
}

func TestParseVirtualizerSAP(t *testing.T) {
	c := newTestConverter()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	sap := g.SAPByID("SAP1")
	if sap == nil {
		t.Fatal("SAP node SAP1 was not created")
	}
	if sap.Name != "SAP1" {
		t.Errorf("SAP name = %q, want prefix-stripped id", sap.Name)
	}
	if g.Infra("BB1").Port("SAP1") == nil {
		t.Error("infra-side SAP port is missing")
	}

	var forward, backward bool
	for _, l := range g.Links {
		if l.ID == "SAP1-BB1-link" {
			if l.Backward {
				backward = true
			} else {
				forward = true
			}
		}
	}
	if !forward || !backward {
		t.Errorf("SAP-infra connection must be an undirected pair, forward=%v backward=%v",
			forward, backward)
	}
}

func TestParseVirtualizerNFAttachment(t *testing.T) {
	c := newTestConverter()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	nf := g.NFByID("nf1")
	if nf == nil {
		t.Fatal("NF node nf1 was not created")
	}
	if nf.FuncType != "firewall" {
		t.Errorf("NF type = %q", nf.FuncType)
	}

	dynID := "BB1|nf1|1"
	infra := g.Infra("BB1")
	dyn := infra.Port(dynID)
	if dyn == nil {
		t.Fatalf("synthesized attachment port %q is missing", dynID)
	}
	if !nffg.IsDynamicPortID(dynID) {
		t.Errorf("attachment port id %q must classify as dynamic", dynID)
	}
	if got := g.NFPortOfDynamicPort("BB1", dynID); got == nil || got.Node().ID != "nf1" {
		t.Errorf("dynamic port does not resolve back to the NF port: %v", got)
	}
}

func TestParseVirtualizerFlowentry(t *testing.T) {
	c := newTestConverter()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	infra := g.Infra("BB1")
	dyn := infra.Port("BB1|nf1|1")
	if dyn == nil || len(dyn.FlowRules) != 1 {
		t.Fatalf("flow rule must land on the attachment port, got %v", dyn)
	}
	fr := dyn.FlowRules[0]
	if fr.ID != 10 {
		t.Errorf("rule id = %d", fr.ID)
	}
	if want := "in_port=BB1|nf1|1;TAG=nf1|SAP1|5"; fr.Match != want {
		t.Errorf("match = %q, want %q", fr.Match, want)
	}
	if want := "output=SAP1;UNTAG"; fr.Action != want {
		t.Errorf("action = %q, want %q", fr.Action, want)
	}
	if d, ok := fr.Delay.Number(); !ok || d != 5 {
		t.Errorf("rule delay = %v", fr.Delay)
	}
	if fr.External {
		t.Error("rule must not be marked external")
	}
}

func TestParseVirtualizerSGHopReconstruction(t *testing.T) {
	c := newTestConverter()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	if len(g.Hops) != 1 {
		t.Fatalf("expected 1 reconstructed hop, got %d", len(g.Hops))
	}
	hop := g.Hops[0]
	if hop.ID != 10 {
		t.Errorf("hop id = %d", hop.ID)
	}
	if hop.Src.Node().ID != "nf1" || hop.Dst.Node().ID != "SAP1" {
		t.Errorf("hop endpoints = %s -> %s", hop.Src, hop.Dst)
	}
}

func TestParseVirtualizerExternalRef(t *testing.T) {
	v := virtualizer.New("topo1", "")
	n := virtualizer.NewNode("BB1")
	n.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))
	n.AddFlowentry(&virtualizer.Flowentry{
		ID:           "1",
		PortExternal: "http://remote/virtualizer/nodes/node[id=BB2]/ports/port[id=7]",
		Out:          n.Port("1"),
	})
	v.AddNode(n)

	c := newTestConverter()
	g, err := c.ParseVirtualizer(v)
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	extID := nffg.ExternalIDPrefix + "7"
	infra := g.Infra("BB1")
	ext := infra.Port(extID)
	if ext == nil {
		t.Fatalf("external port %q is missing", extID)
	}
	if ext.Role != nffg.RoleExternal {
		t.Errorf("external port role = %q", ext.Role)
	}
	if got := ext.Property("node"); got != "BB2" {
		t.Errorf("external node property = %q", got)
	}
	if g.SAPByID(extID) == nil {
		t.Error("companion external SAP is missing")
	}
	if len(ext.FlowRules) != 1 || !ext.FlowRules[0].External {
		t.Fatalf("external flow rule missing or unmarked: %v", ext.FlowRules)
	}
	if len(g.Hops) != 0 {
		t.Errorf("external rules must be excluded from hop reconstruction, got %d", len(g.Hops))
	}
}

func TestParseVirtualizerRequirementMetadata(t *testing.T) {
	v := buildTestTree()
	// Path references rule 10; its output lands on the SAP-side port.
	v.Node("BB1").SetMetadata("constraint:req1",
		"{'delay': {'value': 5.0, 'path': [10]}, 'bandwidth': {'value': 2, 'path': [10]}}")

	c := newTestConverter()
	g, err := c.ParseVirtualizer(v)
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	if len(g.Reqs) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(g.Reqs))
	}
	req := g.Reqs[0]
	if req.ID != "req1" {
		t.Errorf("requirement id = %q", req.ID)
	}
	if req.Delay == nil || *req.Delay != 5 {
		t.Errorf("requirement delay = %v", req.Delay)
	}
	if req.Bandwidth == nil || *req.Bandwidth != 2 {
		t.Errorf("requirement bandwidth = %v", req.Bandwidth)
	}
	if len(req.SGPath) != 1 || req.SGPath[0] != 10 {
		t.Errorf("requirement path = %v", req.SGPath)
	}
	if req.Src.ID != "BB1|nf1|1" || req.Dst.ID != "SAP1" {
		t.Errorf("requirement endpoints = %s -> %s", req.Src, req.Dst)
	}
	// The consumed entry must not leak into plain metadata.
	if _, ok := g.Infra("BB1").Metadata["constraint:req1"]; ok {
		t.Error("requirement metadata entry copied verbatim")
	}
}

func TestParseVirtualizerRequirementFormulas(t *testing.T) {
	v := virtualizer.New("topo1", "")
	n := virtualizer.NewNode("BB1")
	for _, id := range []string{"1", "2", "3"} {
		n.AddPort(virtualizer.NewPort(id, virtualizer.PortTypeAbstract))
	}
	n.AddFlowentry(&virtualizer.Flowentry{
		ID:        "1",
		Port:      n.Port("1"),
		Out:       n.Port("2"),
		Resources: &virtualizer.LinkResource{Delay: strp("$d1")},
	})
	n.AddFlowentry(&virtualizer.Flowentry{
		ID:        "2",
		Port:      n.Port("2"),
		Out:       n.Port("3"),
		Resources: &virtualizer.LinkResource{Delay: strp("$d2")},
	})
	n.Constraints.AddConstraint("delay-r1", "$d1+$d2|max|12.5")
	v.AddNode(n)

	c := newTestConverter()
	g, err := c.ParseVirtualizer(v)
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	if len(g.Reqs) != 1 {
		t.Fatalf("expected 1 requirement from formula, got %d", len(g.Reqs))
	}
	req := g.Reqs[0]
	if req.Delay == nil || *req.Delay != 12.5 {
		t.Errorf("requirement delay = %v", req.Delay)
	}
	if req.Bandwidth != nil {
		t.Errorf("no bandwidth dimension expected, got %v", req.Bandwidth)
	}
	if len(req.SGPath) != 2 || req.SGPath[0] != 1 || req.SGPath[1] != 2 {
		t.Errorf("requirement path = %v", req.SGPath)
	}
	if req.Src.ID != "1" || req.Dst.ID != "3" {
		t.Errorf("requirement endpoints = %s -> %s", req.Src, req.Dst)
	}

	infra := g.Infra("BB1")
	if ids := infra.Constraints.FormulaIDs(); len(ids) != 0 {
		t.Errorf("consumed formula must be removed, still have %v", ids)
	}
	for _, fr := range infra.FlowRules() {
		if fr.Delay.IsSet() {
			t.Errorf("variable slot of rule %d must be cleared, got %v", fr.ID, fr.Delay)
		}
	}
}

func TestParseVirtualizerRequirementFormulaMixedDimensions(t *testing.T) {
	v := virtualizer.New("topo1", "")
	n := virtualizer.NewNode("BB1")
	for _, id := range []string{"1", "2", "3"} {
		n.AddPort(virtualizer.NewPort(id, virtualizer.PortTypeAbstract))
	}
	n.AddFlowentry(&virtualizer.Flowentry{
		ID:        "1",
		Port:      n.Port("1"),
		Out:       n.Port("2"),
		Resources: &virtualizer.LinkResource{Delay: strp("$d1")},
	})
	n.AddFlowentry(&virtualizer.Flowentry{
		ID:        "2",
		Port:      n.Port("2"),
		Out:       n.Port("3"),
		Resources: &virtualizer.LinkResource{Bandwidth: strp("$bw2")},
	})
	// A formula may not span both dimensions.
	n.Constraints.AddConstraint("delay-r1", "$d1+$bw2|max|10")
	v.AddNode(n)

	c := newTestConverter()
	g, err := c.ParseVirtualizer(v)
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}

	if len(g.Reqs) != 0 {
		t.Errorf("mixed-dimension formula must not create a requirement, got %v", g.Reqs)
	}
	infra := g.Infra("BB1")
	if ids := infra.Constraints.FormulaIDs(); len(ids) != 1 || ids[0] != "delay-r1" {
		t.Errorf("unconsumed formula must stay on the node, have %v", ids)
	}
	for _, fr := range infra.FlowRules() {
		switch fr.ID {
		case 1:
			if fr.Delay.Raw() != "$d1" {
				t.Errorf("delay slot of rule 1 must be untouched, got %v", fr.Delay)
			}
		case 2:
			if fr.Bandwidth.Raw() != "$bw2" {
				t.Errorf("bandwidth slot of rule 2 must be untouched, got %v", fr.Bandwidth)
			}
		}
	}
}

func TestParseXML(t *testing.T) {
	c := newTestConverter()
	data, err := c.DumpVirtualizer(mustParseTestGraph(t, c)).Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	g, err := c.ParseXML(data)
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if g.Infra("BB1") == nil {
		t.Error("infra node lost on the wire")
	}
	if g.SAPByID("SAP1") == nil {
		t.Error("SAP lost on the wire")
	}
}

// mustParseTestGraph builds the reference graph by parsing the reference
// tree, failing the test on error.
func mustParseTestGraph(t *testing.T, c *Converter) *nffg.NFFG {
	t.Helper()
	g, err := c.ParseVirtualizer(buildTestTree())
	if err != nil {
		t.Fatalf("ParseVirtualizer failed: %v", err)
	}
	return g
}

func TestSAPIDClassification(t *testing.T) {
	c := newTestConverter()
	cases := []struct {
		name string
		port *virtualizer.Port
		want string
	}{
		{"sap field wins", &virtualizer.Port{ID: "0", SAP: strp("SAP14")}, "SAP14"},
		{"prefixed id", &virtualizer.Port{ID: "SAP2"}, "SAP2"},
		{"prefixed name with colon", &virtualizer.Port{ID: "0", Name: strp("SAP:green")}, "green"},
		{"prefixed name", &virtualizer.Port{ID: "0", Name: strp("SAP3")}, "SAP3"},
		{"fallback port id", &virtualizer.Port{ID: "7", Name: strp("uplink")}, "7"},
	}
	for _, tc := range cases {
		if got := c.sapID(tc.port); got != tc.want {
			t.Errorf("%s: sapID = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseExternalPortRef(t *testing.T) {
	domain, node, port, ok := parseExternalPort(
		"sssa://host/virtualizer/nodes/node[id=BB9]/ports/port[id=3]")
	if !ok {
		t.Fatal("reference must match")
	}
	if domain != "sssa" || node != "BB9" || port != "3" {
		t.Errorf("parsed %q %q %q", domain, node, port)
	}
	if _, _, _, ok := parseExternalPort("not-a-reference"); ok {
		t.Error("malformed reference must not match")
	}
	if !strings.HasPrefix(nffg.ExternalIDPrefix+"3", "EXTERNAL:") {
		t.Errorf("external id prefix = %q", nffg.ExternalIDPrefix)
	}
}
