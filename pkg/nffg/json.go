package nffg

import (
	"encoding/json"
	"fmt"
)

// Wire document shape: a flat node list with a type discriminator plus
// endpoint-id based link/hop/requirement lists. Port back-references and the
// delay matrix are rebuilt on load.

type docNode struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Type        NodeType          `json:"type"`
	Domain      string            `json:"domain,omitempty"`
	InfraType   string            `json:"infra_type,omitempty"`
	Binding     string            `json:"binding,omitempty"`
	FuncType    string            `json:"functional_type,omitempty"`
	DepType     string            `json:"deployment_type,omitempty"`
	Status      string            `json:"status,omitempty"`
	Resources   *Resources        `json:"resources,omitempty"`
	Ports       []*Port           `json:"ports,omitempty"`
	Supported   []string          `json:"supported,omitempty"`
	DelayMatrix []DelayEntry      `json:"delay_matrix,omitempty"`
	Constraints *Constraints      `json:"constraints,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type docEdge struct {
	ID        string   `json:"id,omitempty"`
	Type      LinkType `json:"type,omitempty"`
	Backward  bool     `json:"backward,omitempty"`
	SrcNode   string   `json:"src_node"`
	SrcPort   string   `json:"src_port"`
	DstNode   string   `json:"dst_node"`
	DstPort   string   `json:"dst_port"`
	Delay     Value    `json:"delay,omitempty"`
	Bandwidth Value    `json:"bandwidth,omitempty"`
	Cost      Value    `json:"cost,omitempty"`
	QoS       Value    `json:"qos,omitempty"`
}

type docHop struct {
	ID        int          `json:"id"`
	SrcNode   string       `json:"src_node"`
	SrcPort   string       `json:"src_port"`
	DstNode   string       `json:"dst_node"`
	DstPort   string       `json:"dst_port"`
	Flowclass string       `json:"flowclass,omitempty"`
	Delay     Value        `json:"delay,omitempty"`
	Bandwidth Value        `json:"bandwidth,omitempty"`
	Consts    *Constraints `json:"constraints,omitempty"`
}

type docReq struct {
	ID        string   `json:"id"`
	SrcNode   string   `json:"src_node"`
	SrcPort   string   `json:"src_port"`
	DstNode   string   `json:"dst_node"`
	DstPort   string   `json:"dst_port"`
	Delay     *float64 `json:"delay,omitempty"`
	Bandwidth *float64 `json:"bandwidth,omitempty"`
	SGPath    []int    `json:"sg_path"`
}

type document struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Nodes    []docNode         `json:"nodes"`
	Links    []docEdge         `json:"links"`
	Hops     []docHop          `json:"sg_hops,omitempty"`
	Reqs     []docReq          `json:"requirements,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON renders the graph as the wire document.
func (g *NFFG) MarshalJSON() ([]byte, error) {
	doc := document{
		ID:       g.ID,
		Name:     g.Name,
		Metadata: g.Metadata,
		Nodes:    make([]docNode, 0, len(g.Infras)+len(g.NFs)+len(g.SAPs)),
		Links:    make([]docEdge, 0, len(g.Links)),
	}
	for _, infra := range g.Infras {
		dn := docNode{
			ID: infra.ID, Name: infra.Name, Type: TypeInfra,
			Domain: infra.Domain, InfraType: infra.InfraType,
			Ports: infra.Ports, Supported: infra.Supported,
			Metadata: infra.Metadata,
		}
		res := infra.Resources
		dn.Resources = &res
		dn.DelayMatrix = infra.DelayMatrix.Entries()
		if !infra.Constraints.Empty() {
			c := infra.Constraints
			dn.Constraints = &c
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, nf := range g.NFs {
		dn := docNode{
			ID: nf.ID, Name: nf.Name, Type: TypeNF,
			FuncType: nf.FuncType, DepType: nf.DeploymentType, Status: nf.Status,
			Ports: nf.Ports, Metadata: nf.Metadata,
		}
		res := nf.Resources
		dn.Resources = &res
		if !nf.Constraints.Empty() {
			c := nf.Constraints
			dn.Constraints = &c
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, sap := range g.SAPs {
		doc.Nodes = append(doc.Nodes, docNode{
			ID: sap.ID, Name: sap.Name, Type: TypeSAP,
			Binding: sap.Binding, Ports: sap.Ports, Metadata: sap.Metadata,
		})
	}
	for _, l := range g.Links {
		doc.Links = append(doc.Links, docEdge{
			ID: l.ID, Type: l.Type, Backward: l.Backward,
			SrcNode: l.Src.Node().ID, SrcPort: l.Src.ID,
			DstNode: l.Dst.Node().ID, DstPort: l.Dst.ID,
			Delay: l.Delay, Bandwidth: l.Bandwidth, Cost: l.Cost, QoS: l.QoS,
		})
	}
	for _, h := range g.Hops {
		dh := docHop{
			ID:      h.ID,
			SrcNode: h.Src.Node().ID, SrcPort: h.Src.ID,
			DstNode: h.Dst.Node().ID, DstPort: h.Dst.ID,
			Flowclass: h.Flowclass, Delay: h.Delay, Bandwidth: h.Bandwidth,
		}
		if !h.Constraints.Empty() {
			c := h.Constraints
			dh.Consts = &c
		}
		doc.Hops = append(doc.Hops, dh)
	}
	for _, r := range g.Reqs {
		doc.Reqs = append(doc.Reqs, docReq{
			ID:      r.ID,
			SrcNode: r.Src.Node().ID, SrcPort: r.Src.ID,
			DstNode: r.Dst.Node().ID, DstPort: r.Dst.ID,
			Delay: r.Delay, Bandwidth: r.Bandwidth, SGPath: r.SGPath,
		})
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds the graph from the wire document.
func (g *NFFG) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	rebuilt := New(doc.ID, doc.Name)
	rebuilt.Metadata = doc.Metadata

	for _, dn := range doc.Nodes {
		var base *Node
		switch dn.Type {
		case TypeInfra:
			infra, err := rebuilt.AddInfra(dn.ID)
			if err != nil {
				return err
			}
			infra.Name = dn.Name
			infra.Domain = dn.Domain
			infra.InfraType = dn.InfraType
			infra.Supported = dn.Supported
			if dn.Resources != nil {
				infra.Resources = *dn.Resources
			}
			for _, e := range dn.DelayMatrix {
				infra.DelayMatrix.Add(e.Src, e.Dst, e.Delay)
			}
			base = &infra.Node
		case TypeNF:
			nf, err := rebuilt.AddNF(dn.ID)
			if err != nil {
				return err
			}
			nf.Name = dn.Name
			nf.FuncType = dn.FuncType
			nf.DeploymentType = dn.DepType
			nf.Status = dn.Status
			if dn.Resources != nil {
				nf.Resources = *dn.Resources
			}
			base = &nf.Node
		case TypeSAP:
			sap, err := rebuilt.AddSAP(dn.ID, dn.Name)
			if err != nil {
				return err
			}
			sap.Binding = dn.Binding
			base = &sap.Node
		default:
			return fmt.Errorf("unknown node type: %q", dn.Type)
		}
		base.Metadata = dn.Metadata
		if dn.Constraints != nil {
			base.Constraints = *dn.Constraints
		}
		for _, p := range dn.Ports {
			port := base.AddPort(p.ID)
			*port = *p
			port.node = base
		}
	}

	port := func(node, id, kind string) (*Port, error) {
		n := rebuilt.NodeByID(node)
		if n == nil {
			return nil, modelErr("Unmarshal", kind+" node", node, ErrNodeNotFound)
		}
		p := n.Port(id)
		if p == nil {
			return nil, modelErr("Unmarshal", kind+" port", id, ErrPortNotFound)
		}
		return p, nil
	}

	for _, de := range doc.Links {
		src, err := port(de.SrcNode, de.SrcPort, "link src")
		if err != nil {
			return err
		}
		dst, err := port(de.DstNode, de.DstPort, "link dst")
		if err != nil {
			return err
		}
		l := &Link{
			ID: de.ID, Src: src, Dst: dst, Type: de.Type, Backward: de.Backward,
			Delay: de.Delay, Bandwidth: de.Bandwidth, Cost: de.Cost, QoS: de.QoS,
		}
		if l.Type == "" {
			l.Type = LinkStatic
		}
		rebuilt.Links = append(rebuilt.Links, l)
	}
	for _, dh := range doc.Hops {
		src, err := port(dh.SrcNode, dh.SrcPort, "hop src")
		if err != nil {
			return err
		}
		dst, err := port(dh.DstNode, dh.DstPort, "hop dst")
		if err != nil {
			return err
		}
		hop := &SGHop{
			ID: dh.ID, Src: src, Dst: dst, Flowclass: dh.Flowclass,
			Delay: dh.Delay, Bandwidth: dh.Bandwidth,
		}
		if dh.Consts != nil {
			hop.Constraints = *dh.Consts
		}
		if _, err := rebuilt.AddSGHop(hop); err != nil {
			return err
		}
	}
	for _, dr := range doc.Reqs {
		src, err := port(dr.SrcNode, dr.SrcPort, "req src")
		if err != nil {
			return err
		}
		dst, err := port(dr.DstNode, dr.DstPort, "req dst")
		if err != nil {
			return err
		}
		if _, err := rebuilt.AddRequirement(&Requirement{
			ID: dr.ID, Src: src, Dst: dst,
			Delay: dr.Delay, Bandwidth: dr.Bandwidth, SGPath: dr.SGPath,
		}); err != nil {
			return err
		}
	}

	*g = *rebuilt
	return nil
}
