// Package nffg holds the graph-based service topology model: infrastructure
// nodes, network functions, service access points, links, flow rules and
// end-to-end requirements. The model is pure data plus invariants; all I/O
// and conversion lives elsewhere.
package nffg

import (
	"fmt"
	"strconv"
)

// NFFG is the container graph. Node ids are unique per graph, not globally;
// cross-domain merges namespace-qualify them first.
type NFFG struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Infras []*InfraNode   `json:"-"`
	NFs    []*NF          `json:"-"`
	SAPs   []*SAP         `json:"-"`
	Links  []*Link        `json:"-"`
	Hops   []*SGHop       `json:"-"`
	Reqs   []*Requirement `json:"-"`

	nodes map[string]*Node
}

// New creates an empty graph.
func New(id, name string) *NFFG {
	return &NFFG{
		ID:    id,
		Name:  name,
		nodes: make(map[string]*Node),
	}
}

// AddMetadata sets a graph-level metadata entry.
func (g *NFFG) AddMetadata(key, value string) {
	if g.Metadata == nil {
		g.Metadata = make(map[string]string)
	}
	g.Metadata[key] = value
}

func (g *NFFG) register(n *Node) error {
	if g.nodes == nil {
		g.nodes = make(map[string]*Node)
	}
	if _, ok := g.nodes[n.ID]; ok {
		return modelErr("AddNode", string(n.Type), n.ID, ErrDuplicateID)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddInfra creates an infrastructure node.
func (g *NFFG) AddInfra(id string) (*InfraNode, error) {
	infra := &InfraNode{
		Node:        Node{ID: id, Type: TypeInfra},
		DelayMatrix: NewDelayMatrix(),
	}
	if err := g.register(&infra.Node); err != nil {
		return nil, err
	}
	g.Infras = append(g.Infras, infra)
	return infra, nil
}

// AddNF creates a network function node.
func (g *NFFG) AddNF(id string) (*NF, error) {
	nf := &NF{Node: Node{ID: id, Type: TypeNF}}
	if err := g.register(&nf.Node); err != nil {
		return nil, err
	}
	g.NFs = append(g.NFs, nf)
	return nf, nil
}

// AddSAP creates a service access point node.
func (g *NFFG) AddSAP(id, name string) (*SAP, error) {
	sap := &SAP{Node: Node{ID: id, Name: name, Type: TypeSAP}}
	if err := g.register(&sap.Node); err != nil {
		return nil, err
	}
	g.SAPs = append(g.SAPs, sap)
	return sap, nil
}

// Contains reports whether a node with the id exists.
func (g *NFFG) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeByID returns the common node view for any node kind.
func (g *NFFG) NodeByID(id string) *Node {
	return g.nodes[id]
}

// Infra returns the infra node with the given id.
func (g *NFFG) Infra(id string) *InfraNode {
	for _, i := range g.Infras {
		if i.ID == id {
			return i
		}
	}
	return nil
}

// NFByID returns the NF with the given id.
func (g *NFFG) NFByID(id string) *NF {
	for _, n := range g.NFs {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// SAPByID returns the SAP with the given id.
func (g *NFFG) SAPByID(id string) *SAP {
	for _, s := range g.SAPs {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// LinkOption mutates a link at creation time.
type LinkOption func(*Link)

// WithLinkID sets the link id.
func WithLinkID(id string) LinkOption {
	return func(l *Link) { l.ID = id }
}

// WithLinkResources sets the link resource attributes.
func WithLinkResources(delay, bandwidth, cost, qos Value) LinkOption {
	return func(l *Link) {
		l.Delay, l.Bandwidth, l.Cost, l.QoS = delay, bandwidth, cost, qos
	}
}

// WithBackward marks the link as the backward half of an undirected pair.
func WithBackward() LinkOption {
	return func(l *Link) { l.Backward = true }
}

// AddLink creates a directed static link between two ports.
func (g *NFFG) AddLink(src, dst *Port, opts ...LinkOption) (*Link, error) {
	if src == nil || dst == nil {
		return nil, modelErr("AddLink", "port", "", ErrPortNotFound)
	}
	l := &Link{Src: src, Dst: dst, Type: LinkStatic}
	for _, opt := range opts {
		opt(l)
	}
	g.Links = append(g.Links, l)
	return l, nil
}

// AddUndirectedLink creates a forward/backward pair of static links.
func (g *NFFG) AddUndirectedLink(p1, p2 *Port, opts ...LinkOption) (*Link, *Link, error) {
	l1, err := g.AddLink(p1, p2, opts...)
	if err != nil {
		return nil, nil, err
	}
	l2, err := g.AddLink(p2, p1, append(opts, WithBackward())...)
	if err != nil {
		return nil, nil, err
	}
	if l1.ID != "" {
		l2.ID = l1.ID + "-back"
	}
	return l1, l2, nil
}

// AddDynamicLink creates the undirected NF<->infra attachment pair.
func (g *NFFG) AddDynamicLink(nfPort, infraPort *Port) (*Link, *Link, error) {
	l1, l2, err := g.AddUndirectedLink(nfPort, infraPort)
	if err != nil {
		return nil, nil, err
	}
	l1.Type = LinkDynamic
	l2.Type = LinkDynamic
	return l1, l2, nil
}

// AddSGHop records a logical service-chain hop. Endpoints must be NF or SAP
// ports.
func (g *NFFG) AddSGHop(hop *SGHop) (*SGHop, error) {
	if hop.Src == nil || hop.Dst == nil {
		return nil, modelErr("AddSGHop", "port", strconv.Itoa(hop.ID), ErrPortNotFound)
	}
	if t := hop.Src.Node().Type; t == TypeInfra {
		return nil, modelErr("AddSGHop", "src", hop.Src.ID,
			fmt.Errorf("infra port cannot terminate an SG hop"))
	}
	if t := hop.Dst.Node().Type; t == TypeInfra {
		return nil, modelErr("AddSGHop", "dst", hop.Dst.ID,
			fmt.Errorf("infra port cannot terminate an SG hop"))
	}
	g.Hops = append(g.Hops, hop)
	return hop, nil
}

// AddRequirement records an end-to-end requirement.
func (g *NFFG) AddRequirement(req *Requirement) (*Requirement, error) {
	if req.Src == nil || req.Dst == nil {
		return nil, modelErr("AddRequirement", "port", req.ID, ErrPortNotFound)
	}
	g.Reqs = append(g.Reqs, req)
	return req, nil
}

// OutLinks returns every link whose source port belongs to the given node.
func (g *NFFG) OutLinks(nodeID string) []*Link {
	var out []*Link
	for _, l := range g.Links {
		if l.Src != nil && l.Src.Node() != nil && l.Src.Node().ID == nodeID {
			out = append(out, l)
		}
	}
	return out
}

// RunningNFs returns the NFs attached to the infra node by dynamic links, in
// attachment order without duplicates.
func (g *NFFG) RunningNFs(infraID string) []*NF {
	seen := make(map[string]bool)
	var out []*NF
	for _, l := range g.Links {
		if l.Type != LinkDynamic || l.Backward {
			continue
		}
		// Dynamic pairs are stored NF->infra forward.
		if l.Dst.Node().ID != infraID {
			continue
		}
		nfID := l.Src.Node().ID
		if seen[nfID] {
			continue
		}
		seen[nfID] = true
		if nf := g.NFByID(nfID); nf != nil {
			out = append(out, nf)
		}
	}
	return out
}

// NFPortOfDynamicPort resolves an infra-side dynamic port id back to the
// attached NF port by searching the dynamic links.
func (g *NFFG) NFPortOfDynamicPort(infraID, dynPortID string) *Port {
	for _, l := range g.Links {
		if l.Type != LinkDynamic || l.Backward {
			continue
		}
		if l.Dst.Node().ID == infraID && l.Dst.ID == dynPortID {
			return l.Src
		}
	}
	return nil
}

// DynamicPortOfNFPort resolves an NF port to the infra-side dynamic port.
func (g *NFFG) DynamicPortOfNFPort(nfID, nfPortID string) *Port {
	for _, l := range g.Links {
		if l.Type != LinkDynamic || l.Backward {
			continue
		}
		if l.Src.Node().ID == nfID && l.Src.ID == nfPortID {
			return l.Dst
		}
	}
	return nil
}

// IsSingleInfra reports the collapsed single-node view: exactly one infra
// node in the graph.
func (g *NFFG) IsSingleInfra() bool {
	return len(g.Infras) == 1
}

func (g *NFFG) String() string {
	return fmt.Sprintf("NFFG(id=%s, infras=%d, nfs=%d, saps=%d, links=%d)",
		g.ID, len(g.Infras), len(g.NFs), len(g.SAPs), len(g.Links))
}

func parsePortNumber(id string) (int, error) {
	return strconv.Atoi(id)
}
