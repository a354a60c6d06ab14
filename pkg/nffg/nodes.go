package nffg

import "fmt"

// Resources holds the capacity/requirement attributes shared by infra nodes
// and NFs.
type Resources struct {
	CPU       Value `json:"cpu,omitempty"`
	Mem       Value `json:"mem,omitempty"`
	Storage   Value `json:"storage,omitempty"`
	Cost      Value `json:"cost,omitempty"`
	Zone      Value `json:"zone,omitempty"`
	Delay     Value `json:"delay,omitempty"`
	Bandwidth Value `json:"bandwidth,omitempty"`
}

// Node is the common part of every graph node. Concrete kinds embed it.
type Node struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Type        NodeType          `json:"type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Ports       []*Port           `json:"ports,omitempty"`
	Constraints Constraints       `json:"constraints,omitempty"`
}

// AddPort creates (or returns the already existing) port with the given id.
func (n *Node) AddPort(id string) *Port {
	if p := n.Port(id); p != nil {
		return p
	}
	p := &Port{ID: id, node: n}
	n.Ports = append(n.Ports, p)
	return p
}

// Port returns the node's port with the given id, or nil.
func (n *Node) Port(id string) *Port {
	for _, p := range n.Ports {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HasPort reports whether the node owns a port with the given id.
func (n *Node) HasPort(id string) bool { return n.Port(id) != nil }

// AddMetadata sets a metadata entry.
func (n *Node) AddMetadata(key, value string) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]string)
	}
	n.Metadata[key] = value
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(id=%s)", n.Type, n.ID)
}

// InfraNode is an infrastructure (BiSBiS) node hosting NFs.
type InfraNode struct {
	Node
	Domain      string       `json:"domain,omitempty"`
	InfraType   string       `json:"infra_type,omitempty"`
	Resources   Resources    `json:"resources,omitempty"`
	DelayMatrix *DelayMatrix `json:"-"`
	Supported   []string     `json:"supported,omitempty"`
}

// AddSupportedType registers an NF type the node can host; duplicates are
// ignored.
func (i *InfraNode) AddSupportedType(nfType string) {
	for _, t := range i.Supported {
		if t == nfType {
			return
		}
	}
	i.Supported = append(i.Supported, nfType)
}

// FlowRules returns every rule of the node's flow table, walking ports in
// insertion order.
func (i *InfraNode) FlowRules() []*FlowRule {
	var out []*FlowRule
	for _, p := range i.Ports {
		out = append(out, p.FlowRules...)
	}
	return out
}

// FlowRulePort returns the port holding the rule with the given id.
func (i *InfraNode) FlowRulePort(id int) *Port {
	for _, p := range i.Ports {
		for _, fr := range p.FlowRules {
			if fr.ID == id {
				return p
			}
		}
	}
	return nil
}

// NF is a network function instance.
type NF struct {
	Node
	FuncType       string    `json:"functional_type,omitempty"`
	DeploymentType string    `json:"deployment_type,omitempty"`
	Status         string    `json:"status,omitempty"`
	Resources      Resources `json:"resources,omitempty"`
}

// SAP is a service access point. A non-empty Binding marks it as an
// inter-domain boundary.
type SAP struct {
	Node
	Binding string `json:"binding,omitempty"`
}
