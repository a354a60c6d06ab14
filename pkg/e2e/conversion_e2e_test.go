package e2e

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfvio/topoconv/pkg/config"
	"github.com/nfvio/topoconv/pkg/convert"
	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/metrics"
	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/orchestrator"
	"github.com/nfvio/topoconv/pkg/virtualizer"
	"github.com/nfvio/topoconv/pkg/vlan"
)

func strp(s string) *string { return &s }

func newConverter() *convert.Converter {
	cfg := config.Default()
	cfg.ParseSGHops = true
	return convert.New(cfg, logging.NewNopLogger(), metrics.NewRegistry())
}

// buildDomainTree assembles a two-node domain: BB1 carries a SAP port and a
// running firewall wired to the SAP by a flow entry, BB2 is reachable over
// an inter-node link pair.
func buildDomainTree() *virtualizer.Virtualizer {
	v := virtualizer.New("dom1", "Two-node domain")

	bb1 := virtualizer.NewNode("BB1")
	bb1.Name = strp("bisbis-west")
	bb1.Type = strp("BiSBiS")
	bb1.Resources = &virtualizer.SoftwareResource{
		CPU: strp("20"), Mem: strp("64"), Storage: strp("100"),
	}
	bb1.AddSupportedNF("firewall")
	bb1.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))
	sapPort := virtualizer.NewPort("SAP1", virtualizer.PortTypeSAP)
	sapPort.Name = strp("SAP:SAP1")
	bb1.AddPort(sapPort)

	fw := virtualizer.NewNode("fw1")
	fw.Type = strp("firewall")
	fw.Resources = &virtualizer.SoftwareResource{CPU: strp("2"), Mem: strp("4")}
	bb1.AddNFInstance(fw)
	fw.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))

	bb1.AddFlowentry(&virtualizer.Flowentry{
		ID:     "10",
		Port:   fw.Port("1"),
		Out:    bb1.Port("SAP1"),
		Match:  strp("dl_tag=0x0004"),
		Action: strp("pop_tag"),
	})
	v.AddNode(bb1)

	bb2 := virtualizer.NewNode("BB2")
	bb2.Type = strp("BiSBiS")
	bb2.Resources = &virtualizer.SoftwareResource{
		CPU: strp("8"), Mem: strp("16"), Storage: strp("40"),
	}
	bb2.AddPort(virtualizer.NewPort("1", virtualizer.PortTypeAbstract))
	v.AddNode(bb2)

	res := &virtualizer.LinkResource{Delay: strp("2"), Bandwidth: strp("1000")}
	v.AddLink(&virtualizer.Link{
		ID: "l1", Src: bb1.Port("1"), Dst: bb2.Port("1"), Resources: res,
	})
	v.AddLink(&virtualizer.Link{
		ID: "l1-back", Src: bb2.Port("1"), Dst: bb1.Port("1"), Resources: res,
	})

	v.SetMetadata("domain", "west")
	return v
}

// TestDomainTopologyWorkflow walks a domain document through the full
// pipeline: parse into a graph, dump back into a tree, serialize, reparse,
// snapshot and diff.
func TestDomainTopologyWorkflow(t *testing.T) {
	c := newConverter()

	t.Log("Step 1: parsing the domain document")
	g, err := c.ParseVirtualizer(buildDomainTree())
	require.NoError(t, err)
	require.Len(t, g.Infras, 2)
	require.NotNil(t, g.SAPByID("SAP1"))
	require.NotNil(t, g.NFByID("fw1"))

	bb1 := g.Infra("BB1")
	require.NotNil(t, bb1)
	require.Len(t, bb1.FlowRules(), 1)
	fr := bb1.FlowRules()[0]
	assert.Equal(t, "in_port=BB1|fw1|1;TAG=fw1|SAP1|4", fr.Match)
	assert.Equal(t, "output=SAP1;UNTAG", fr.Action)
	assert.Len(t, g.Hops, 1, "the flow entry should reconstruct one hop")

	t.Log("Step 2: dumping the graph and reparsing the wire form")
	dumped := c.DumpVirtualizer(g)
	data, err := dumped.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(data), "<virtualizer>")

	g2, err := c.ParseXML(data)
	require.NoError(t, err)
	require.Len(t, g2.Infras, 2)
	bb1Again := g2.Infra("BB1")
	require.NotNil(t, bb1Again)
	require.Len(t, bb1Again.FlowRules(), 1)
	assert.Equal(t, fr.Match, bb1Again.FlowRules()[0].Match)
	assert.Equal(t, fr.Action, bb1Again.FlowRules()[0].Action)

	var forward, backward bool
	for _, l := range g2.Links {
		if l.ID == "l1" {
			forward = true
		}
		if l.ID == "l1-back" {
			backward = l.Backward
		}
	}
	assert.True(t, forward, "forward half of the inter-node link is missing")
	assert.True(t, backward, "backward half did not survive the round trip")

	t.Log("Step 3: storing and reloading a snapshot")
	store := orchestrator.NewSnapshotStore(logging.NewNopLogger())
	require.NoError(t, store.Save("global", dumped))
	loaded, err := store.Load("global")
	require.NoError(t, err)
	require.NotNil(t, loaded.Node("BB1"))

	loaded.RemoveNode("BB2")
	reloaded, err := store.Load("global")
	require.NoError(t, err)
	assert.NotNil(t, reloaded.Node("BB2"),
		"mutating a loaded copy must not touch the stored snapshot")

	t.Log("Step 4: diffing a cleared view against the full one")
	trimmed := convert.ClearInstalled(dumped.Clone())
	frag, err := c.DiffTrees(trimmed, dumped)
	require.NoError(t, err)
	assert.False(t, frag.IsEmpty(), "clearing installed state must show up in the diff")

	same, err := c.DiffTrees(dumped, dumped.Clone())
	require.NoError(t, err)
	assert.True(t, same.IsEmpty(), "identical documents must diff to nothing")
}

// buildChainRequest assembles the service chain SAP1 -> fw1 -> SAP2 with a
// delay requirement across both hops.
func buildChainRequest(t *testing.T) *nffg.NFFG {
	t.Helper()
	g := nffg.New("chain-1", "Firewall chain")

	sap1, err := g.AddSAP("SAP1", "SAP1")
	require.NoError(t, err)
	sp1 := sap1.AddPort("1")
	sap2, err := g.AddSAP("SAP2", "SAP2")
	require.NoError(t, err)
	sp2 := sap2.AddPort("1")

	fw, err := g.AddNF("fw1")
	require.NoError(t, err)
	fw.FuncType = "firewall"
	np1 := fw.AddPort("1")
	np2 := fw.AddPort("2")

	_, err = g.AddSGHop(&nffg.SGHop{
		ID: 1, Src: sp1, Dst: np1,
		Flowclass: "dl_type=0x0800",
		Bandwidth: nffg.Number(50),
	})
	require.NoError(t, err)
	_, err = g.AddSGHop(&nffg.SGHop{ID: 2, Src: np2, Dst: sp2})
	require.NoError(t, err)

	delay := 30.0
	_, err = g.AddRequirement(&nffg.Requirement{
		ID: "r1", Src: sp1, Dst: sp2, Delay: &delay, SGPath: []int{1, 2},
	})
	require.NoError(t, err)
	return g
}

// TestServiceRequestWorkflow drives a service chain through install,
// submission envelope creation, diff against the pre-install base and
// finally teardown.
func TestServiceRequestWorkflow(t *testing.T) {
	c := newConverter()
	req := buildChainRequest(t)

	t.Log("Step 1: normalizing hop ids and converting the install request")
	require.NoError(t, c.NormalizeHopIDs(req, vlan.NewAllocator(logging.NewNopLogger())))
	installed := c.ServiceRequestInit(req, nil, false)
	require.Len(t, installed.Nodes, 1)
	sbb := installed.Nodes[0]
	require.NotNil(t, sbb.NFInstance("fw1"))
	fe := sbb.Flowentry("1")
	require.NotNil(t, fe)
	assert.Equal(t, "100", *fe.Priority)
	assert.Equal(t, "dl_type=0x0800", *fe.Match)

	var formula string
	for _, cc := range sbb.Constraints.Constraint {
		if cc.ID == "delay-r1" {
			formula = cc.Formula
		}
	}
	assert.Equal(t, "$d1+$d2|max|30", formula)

	t.Log("Step 2: wrapping the document in a submission envelope")
	env := orchestrator.NewRequest("global", installed, true)
	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Equal(t, "global", env.Scope)
	assert.True(t, env.Diff)
	assert.False(t, env.CreatedAt.IsZero())

	t.Log("Step 3: diffing teardown output against the installed state")
	removed := c.ServiceRequestDel(req, installed)
	require.NotSame(t, installed, removed)
	assert.Nil(t, removed.Nodes[0].NFInstance("fw1"))
	assert.Nil(t, removed.Nodes[0].Flowentry("1"))
	assert.NotNil(t, removed.Nodes[0].Port("SAP1"))

	frag, err := c.DiffTrees(removed, installed)
	require.NoError(t, err)
	assert.False(t, frag.IsEmpty(), "reinstating the chain must appear in the diff")
}
