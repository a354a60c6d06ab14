package nffg

import (
	"encoding/json"
	"testing"
)

func TestDocumentRoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	infra := g.Infra("BB1")
	infra.Resources.CPU = Number(20)
	infra.Resources.Mem = ParseValue("64 GB")
	infra.DelayMatrix.Add("1", "2", 0.5)
	infra.AddSupportedType("firewall")
	infra.Port("1").AddFlowRule(&FlowRule{
		ID: 7, Match: "in_port=1", Action: "output=BB1|NF1|0", Delay: Number(3),
	})
	delay := 50.0
	if _, err := g.AddRequirement(&Requirement{
		ID:  "req1",
		Src: g.SAPByID("SAP1").Port("1"), Dst: g.NFByID("NF1").Port("0"),
		Delay: &delay, SGPath: []int{7},
	}); err != nil {
		t.Fatalf("AddRequirement: %v", err)
	}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back NFFG
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(back.Infras) != 1 || len(back.NFs) != 1 || len(back.SAPs) != 1 {
		t.Fatalf("node counts changed: %s", &back)
	}
	if len(back.Links) != len(g.Links) {
		t.Fatalf("link count changed: %d != %d", len(back.Links), len(g.Links))
	}
	bi := back.Infra("BB1")
	if cpu, ok := bi.Resources.CPU.Number(); !ok || cpu != 20 {
		t.Errorf("cpu lost: %v", bi.Resources.CPU)
	}
	if mem, ok := bi.Resources.Mem.Number(); !ok || mem != 64 {
		t.Errorf("mem lost: %v", bi.Resources.Mem)
	}
	if bi.DelayMatrix.Len() != 1 {
		t.Errorf("delay matrix lost")
	}
	rules := bi.FlowRules()
	if len(rules) != 1 || rules[0].ID != 7 {
		t.Fatalf("flow rules lost: %v", rules)
	}
	if d, ok := rules[0].Delay.Number(); !ok || d != 3 {
		t.Errorf("rule delay lost: %v", rules[0].Delay)
	}
	if len(back.Reqs) != 1 || back.Reqs[0].Src.Node().ID != "SAP1" {
		t.Fatalf("requirement lost: %v", back.Reqs)
	}
	// Rebuilt ports must have working back-references.
	if back.NFPortOfDynamicPort("BB1", "BB1|NF1|0") == nil {
		t.Errorf("dynamic link resolution broken after round-trip")
	}
}

func TestUnmarshalRejectsDanglingLink(t *testing.T) {
	raw := `{
		"id": "broken",
		"nodes": [{"id": "A", "type": "INFRA", "ports": [{"id": "1"}]}],
		"links": [{"src_node": "A", "src_port": "1", "dst_node": "ghost", "dst_port": "1"}]
	}`
	var g NFFG
	if err := json.Unmarshal([]byte(raw), &g); err == nil {
		t.Fatal("dangling link endpoint must fail to unmarshal")
	}
}
