package nffg

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType discriminates the three node kinds of the graph model.
type NodeType string

const (
	TypeInfra NodeType = "INFRA"
	TypeNF    NodeType = "NF"
	TypeSAP   NodeType = "SAP"
)

// LinkType discriminates edge kinds. Undirected static links are stored as a
// forward/backward pair of directed links.
type LinkType string

const (
	LinkStatic  LinkType = "STATIC"
	LinkDynamic LinkType = "DYNAMIC"
)

// Role value marking ports and SAPs that stand in for an element outside the
// graph.
const RoleExternal = "EXTERNAL"

// L3Address is one entry of a port's layer-3 address list.
type L3Address struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Configure bool   `json:"configure,omitempty"`
	Client    string `json:"client,omitempty"`
	Requested string `json:"requested,omitempty"`
	Provided  string `json:"provided,omitempty"`
}

// Port belongs to exactly one node. The owning node back-reference is
// non-owning and set by the node's AddPort.
type Port struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	SAP          string            `json:"sap,omitempty"`
	Role         string            `json:"role,omitempty"`
	Technology   string            `json:"technology,omitempty"`
	Capability   string            `json:"capability,omitempty"`
	Delay        Value             `json:"delay,omitempty"`
	Bandwidth    Value             `json:"bandwidth,omitempty"`
	Cost         Value             `json:"cost,omitempty"`
	QoS          Value             `json:"qos,omitempty"`
	Controller   string            `json:"controller,omitempty"`
	Orchestrator string            `json:"orchestrator,omitempty"`
	L2           string            `json:"l2,omitempty"`
	L4           string            `json:"l4,omitempty"`
	L3           []L3Address       `json:"l3,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	FlowRules    []*FlowRule       `json:"flowrules,omitempty"`

	node *Node
}

// Node returns the owning node.
func (p *Port) Node() *Node { return p.node }

// AddProperty sets an opaque key/value property on the port.
func (p *Port) AddProperty(key, value string) {
	if p.Properties == nil {
		p.Properties = make(map[string]string)
	}
	p.Properties[key] = value
}

// Property returns the property value or "".
func (p *Port) Property(key string) string {
	return p.Properties[key]
}

// AddMetadata sets a metadata entry on the port.
func (p *Port) AddMetadata(key, value string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata[key] = value
}

// AddFlowRule attaches a flow rule to the port. Rule ids are unique within
// the owning node's flow table; a duplicate id replaces the previous rule.
func (p *Port) AddFlowRule(fr *FlowRule) *FlowRule {
	for i, old := range p.FlowRules {
		if old.ID == fr.ID {
			p.FlowRules[i] = fr
			return fr
		}
	}
	p.FlowRules = append(p.FlowRules, fr)
	return fr
}

func (p *Port) String() string {
	if p.node != nil {
		return fmt.Sprintf("%s:%s", p.node.ID, p.ID)
	}
	return p.ID
}

// FlowRule is a physical match/action rule stored on a port. Match and
// action are kept in the graph model's string vocabulary; use flowops for
// structured access.
type FlowRule struct {
	ID          int         `json:"id"`
	Match       string      `json:"match"`
	Action      string      `json:"action"`
	Delay       Value       `json:"delay,omitempty"`
	Bandwidth   Value       `json:"bandwidth,omitempty"`
	Cost        Value       `json:"cost,omitempty"`
	QoS         Value       `json:"qos,omitempty"`
	External    bool        `json:"external,omitempty"`
	Constraints Constraints `json:"constraints,omitempty"`
}

func (f *FlowRule) String() string {
	return fmt.Sprintf("FlowRule(id=%d, match=%q, action=%q)", f.ID, f.Match, f.Action)
}

// Link is a directed edge between two ports. Undirected static links occupy
// two Link values with Backward set on the second.
type Link struct {
	ID        string   `json:"id,omitempty"`
	Src       *Port    `json:"-"`
	Dst       *Port    `json:"-"`
	Type      LinkType `json:"type"`
	Backward  bool     `json:"backward,omitempty"`
	Delay     Value    `json:"delay,omitempty"`
	Bandwidth Value    `json:"bandwidth,omitempty"`
	Cost      Value    `json:"cost,omitempty"`
	QoS       Value    `json:"qos,omitempty"`
}

func (l *Link) String() string {
	return fmt.Sprintf("Link(%s --> %s)", l.Src, l.Dst)
}

// SGHop is a logical service-chain edge, distinct from physical links. Its
// endpoints are NF or SAP ports, never raw infra ports.
type SGHop struct {
	ID          int         `json:"id"`
	Src         *Port       `json:"-"`
	Dst         *Port       `json:"-"`
	Flowclass   string      `json:"flowclass,omitempty"`
	Delay       Value       `json:"delay,omitempty"`
	Bandwidth   Value       `json:"bandwidth,omitempty"`
	Constraints Constraints `json:"constraints,omitempty"`
}

func (h *SGHop) String() string {
	return fmt.Sprintf("SGHop(id=%d, %s --> %s)", h.ID, h.Src, h.Dst)
}

// Requirement is an end-to-end delay/bandwidth requirement spanning an
// ordered chain of SG hop / flow rule ids.
type Requirement struct {
	ID        string   `json:"id"`
	Src       *Port    `json:"-"`
	Dst       *Port    `json:"-"`
	Delay     *float64 `json:"delay,omitempty"`
	Bandwidth *float64 `json:"bandwidth,omitempty"`
	SGPath    []int    `json:"sg_path"`
}

func (r *Requirement) String() string {
	return fmt.Sprintf("Requirement(id=%s, path=%v)", r.ID, r.SGPath)
}

// Constraints groups the placement/restoration constraints an element may
// carry. Formulas are transient encodings of requirements when they travel
// through the tree model.
type Constraints struct {
	Affinity      map[string]string `json:"affinity,omitempty"`
	Antiaffinity  map[string]string `json:"antiaffinity,omitempty"`
	Variables     map[string]string `json:"variable,omitempty"`
	Formulas      map[string]string `json:"constraint,omitempty"`
	Restorability string            `json:"restorability,omitempty"`
}

// AddAffinity records an affinity entry.
func (c *Constraints) AddAffinity(id, value string) {
	if c.Affinity == nil {
		c.Affinity = make(map[string]string)
	}
	c.Affinity[id] = value
}

// AddAntiaffinity records an anti-affinity entry.
func (c *Constraints) AddAntiaffinity(id, value string) {
	if c.Antiaffinity == nil {
		c.Antiaffinity = make(map[string]string)
	}
	c.Antiaffinity[id] = value
}

// AddVariable records a variable binding.
func (c *Constraints) AddVariable(key, id string) {
	if c.Variables == nil {
		c.Variables = make(map[string]string)
	}
	c.Variables[key] = id
}

// AddFormula records a constraint formula.
func (c *Constraints) AddFormula(id, formula string) {
	if c.Formulas == nil {
		c.Formulas = make(map[string]string)
	}
	c.Formulas[id] = formula
}

// DelFormula removes a constraint formula by id.
func (c *Constraints) DelFormula(id string) {
	delete(c.Formulas, id)
}

// FormulaIDs returns formula ids in deterministic order.
func (c *Constraints) FormulaIDs() []string {
	ids := make([]string, 0, len(c.Formulas))
	for id := range c.Formulas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether no constraint of any kind is present.
func (c *Constraints) Empty() bool {
	return len(c.Affinity) == 0 && len(c.Antiaffinity) == 0 &&
		len(c.Variables) == 0 && len(c.Formulas) == 0 && c.Restorability == ""
}

// DelayMatrix stores per-pair intra-node delays.
type DelayMatrix struct {
	entries map[string]map[string]float64
}

// NewDelayMatrix creates an empty matrix.
func NewDelayMatrix() *DelayMatrix {
	return &DelayMatrix{entries: make(map[string]map[string]float64)}
}

// Add records the delay between two intra-node ports.
func (m *DelayMatrix) Add(src, dst string, delay float64) {
	if m.entries == nil {
		m.entries = make(map[string]map[string]float64)
	}
	row, ok := m.entries[src]
	if !ok {
		row = make(map[string]float64)
		m.entries[src] = row
	}
	row[dst] = delay
}

// DelayEntry is one (src, dst, delay) triple of a delay matrix.
type DelayEntry struct {
	Src, Dst string
	Delay    float64
}

// Entries returns all matrix entries in deterministic order.
func (m *DelayMatrix) Entries() []DelayEntry {
	if m == nil {
		return nil
	}
	var out []DelayEntry
	srcs := make([]string, 0, len(m.entries))
	for src := range m.entries {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)
	for _, src := range srcs {
		dsts := make([]string, 0, len(m.entries[src]))
		for dst := range m.entries[src] {
			dsts = append(dsts, dst)
		}
		sort.Strings(dsts)
		for _, dst := range dsts {
			out = append(out, DelayEntry{Src: src, Dst: dst, Delay: m.entries[src][dst]})
		}
	}
	return out
}

// Len returns the number of matrix entries.
func (m *DelayMatrix) Len() int {
	n := 0
	for _, row := range m.entries {
		n += len(row)
	}
	return n
}

// IsDynamicPortID reports whether an infra port id denotes a synthesized
// NF-attachment port: the `|`-joined (infra, nf, port) triple, or a very
// large generated number.
func IsDynamicPortID(id string) bool {
	if strings.Contains(id, "|") {
		return true
	}
	if n, err := parsePortNumber(id); err == nil && n >= 65536 {
		return true
	}
	return false
}

// IsExternalPortID reports whether a port id denotes an external reference.
func IsExternalPortID(id string) bool {
	return strings.HasPrefix(id, ExternalIDPrefix)
}

// ExternalIDPrefix marks synthesized ports/SAPs standing for out-of-graph
// references.
const ExternalIDPrefix = "EXTERNAL:"
