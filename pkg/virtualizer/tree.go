// Package virtualizer implements the hierarchical infrastructure descriptor
// consumed and produced by the orchestrator's control API. Elements are
// addressable by path and cross-references (flowentry ports, constraint
// objects, link endpoints) are kept as direct handles in memory; path strings
// appear only in the XML form.
package virtualizer

import (
	"fmt"
)

// Port type discriminators.
const (
	PortTypeSAP      = "port-sap"
	PortTypeAbstract = "port-abstract"
)

// Operation markers used by edit-config style fragments.
const (
	OpDelete  = "delete"
	OpCreate  = "create"
	OpReplace = "replace"
	OpRemove  = "remove"
	OpMerge   = "merge"
)

// str returns a pointer leaf for v. A nil pointer means the leaf is absent,
// which is distinct from an empty value.
func str(v string) *string { return &v }

// leafVal dereferences an optional leaf, defaulting to the empty string.
func leafVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// leafEq compares two optional leaves including presence.
func leafEq(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// Virtualizer is the document root.
type Virtualizer struct {
	ID       string
	Name     *string
	Nodes    []*Node
	Links    []*Link
	Metadata []*Metadata
	Version  *string

	// relative selects the leafref rendering mode for the whole document.
	relative bool
}

// New creates an empty document.
func New(id, name string) *Virtualizer {
	v := &Virtualizer{ID: id}
	if name != "" {
		v.Name = str(name)
	}
	return v
}

// Bind sets the leafref path mode used when the document is serialized.
// Both operands of a diff must be bound the same way.
func (v *Virtualizer) Bind(relative bool) { v.relative = relative }

// Relative reports the current leafref binding mode.
func (v *Virtualizer) Relative() bool { return v.relative }

// Node returns the top-level infra node with the given id, or nil.
func (v *Virtualizer) Node(id string) *Node {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// AddNode appends a top-level infra node, replacing an existing node with
// the same id.
func (v *Virtualizer) AddNode(n *Node) *Node {
	n.doc = v
	n.owner = nil
	for i, old := range v.Nodes {
		if old.ID == n.ID {
			v.Nodes[i] = n
			return n
		}
	}
	v.Nodes = append(v.Nodes, n)
	return n
}

// RemoveNode deletes the top-level node with the given id.
func (v *Virtualizer) RemoveNode(id string) bool {
	for i, n := range v.Nodes {
		if n.ID == id {
			v.Nodes = append(v.Nodes[:i], v.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// AddLink appends a cross-node link.
func (v *Virtualizer) AddLink(l *Link) *Link {
	l.doc = v
	l.ownerNode = nil
	v.Links = append(v.Links, l)
	return l
}

// SetMetadata inserts or updates a root metadata entry.
func (v *Virtualizer) SetMetadata(key, value string) {
	for _, m := range v.Metadata {
		if m.Key == key {
			m.Value = value
			return
		}
	}
	v.Metadata = append(v.Metadata, &Metadata{Key: key, Value: value})
}

// MetadataValue returns the root metadata value for key.
func (v *Virtualizer) MetadataValue(key string) (string, bool) {
	for _, m := range v.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// RemoveMetadata deletes the root metadata entry for key.
func (v *Virtualizer) RemoveMetadata(key string) bool {
	for i, m := range v.Metadata {
		if m.Key == key {
			v.Metadata = append(v.Metadata[:i], v.Metadata[i+1:]...)
			return true
		}
	}
	return false
}

// Metadata is a key/value annotation attached to various elements.
type Metadata struct {
	Key       string
	Value     string
	Operation string
}

// SoftwareResource holds compute capacities of a node. Values are free-form
// text and may carry unit suffixes.
type SoftwareResource struct {
	CPU     *string
	Mem     *string
	Storage *string
	Cost    *string
	Zone    *string
}

func (r *SoftwareResource) equal(o *SoftwareResource) bool {
	if (r == nil) != (o == nil) {
		return false
	}
	if r == nil {
		return true
	}
	return leafEq(r.CPU, o.CPU) && leafEq(r.Mem, o.Mem) &&
		leafEq(r.Storage, o.Storage) && leafEq(r.Cost, o.Cost) &&
		leafEq(r.Zone, o.Zone)
}

// LinkResource holds transfer attributes of a link or flow entry.
type LinkResource struct {
	Delay     *string
	Bandwidth *string
	Cost      *string
	QoS       *string
}

func (r *LinkResource) equal(o *LinkResource) bool {
	if (r == nil) != (o == nil) {
		return false
	}
	if r == nil {
		return true
	}
	return leafEq(r.Delay, o.Delay) && leafEq(r.Bandwidth, o.Bandwidth) &&
		leafEq(r.Cost, o.Cost) && leafEq(r.QoS, o.QoS)
}

// Node is an infra node or, nested under NF_instances, an NF instance.
// A supported-NF entry reuses the type with only ID and Type filled.
type Node struct {
	ID           string
	Name         *string
	Type         *string
	Status       *string
	Ports        []*Port
	Links        []*Link
	Resources    *SoftwareResource
	NFInstances  []*Node
	SupportedNFs []*Node
	Flowtable    []*Flowentry
	Constraints  Constraints
	Metadata     []*Metadata
	Operation    string

	doc   *Virtualizer
	owner *Node // non-nil for NF instances
}

// NewNode creates a detached node.
func NewNode(id string) *Node { return &Node{ID: id} }

// Owner returns the infra node containing this NF instance, or nil for a
// top-level node.
func (n *Node) Owner() *Node { return n.owner }

// Doc returns the containing document, or nil for a detached node.
func (n *Node) Doc() *Virtualizer { return n.doc }

// Port returns the port with the given id, or nil.
func (n *Node) Port(id string) *Port {
	for _, p := range n.Ports {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPort appends a port, replacing an existing port with the same id.
func (n *Node) AddPort(p *Port) *Port {
	p.owner = n
	for i, old := range n.Ports {
		if old.ID == p.ID {
			n.Ports[i] = p
			return p
		}
	}
	n.Ports = append(n.Ports, p)
	return p
}

// RemovePort deletes the port with the given id.
func (n *Node) RemovePort(id string) bool {
	for i, p := range n.Ports {
		if p.ID == id {
			n.Ports = append(n.Ports[:i], n.Ports[i+1:]...)
			return true
		}
	}
	return false
}

// NFInstance returns the hosted NF with the given id, or nil.
func (n *Node) NFInstance(id string) *Node {
	for _, nf := range n.NFInstances {
		if nf.ID == id {
			return nf
		}
	}
	return nil
}

// AddNFInstance attaches an NF instance node, replacing one with the same id.
func (n *Node) AddNFInstance(nf *Node) *Node {
	nf.owner = n
	nf.doc = n.doc
	for i, old := range n.NFInstances {
		if old.ID == nf.ID {
			n.NFInstances[i] = nf
			return nf
		}
	}
	n.NFInstances = append(n.NFInstances, nf)
	return nf
}

// RemoveNFInstance deletes the hosted NF with the given id.
func (n *Node) RemoveNFInstance(id string) bool {
	for i, nf := range n.NFInstances {
		if nf.ID == id {
			n.NFInstances = append(n.NFInstances[:i], n.NFInstances[i+1:]...)
			return true
		}
	}
	return false
}

// AddSupportedNF records an NF type this node can host.
func (n *Node) AddSupportedNF(nfType string) {
	for _, s := range n.SupportedNFs {
		if s.ID == nfType {
			return
		}
	}
	n.SupportedNFs = append(n.SupportedNFs,
		&Node{ID: nfType, Type: str(nfType)})
}

// Flowentry returns the flow entry with the given id, or nil.
func (n *Node) Flowentry(id string) *Flowentry {
	for _, fe := range n.Flowtable {
		if fe.ID == id {
			return fe
		}
	}
	return nil
}

// AddFlowentry appends a flow entry, replacing one with the same id.
func (n *Node) AddFlowentry(fe *Flowentry) *Flowentry {
	fe.owner = n
	for i, old := range n.Flowtable {
		if old.ID == fe.ID {
			n.Flowtable[i] = fe
			return fe
		}
	}
	n.Flowtable = append(n.Flowtable, fe)
	return fe
}

// RemoveFlowentry deletes the flow entry with the given id.
func (n *Node) RemoveFlowentry(id string) bool {
	for i, fe := range n.Flowtable {
		if fe.ID == id {
			n.Flowtable = append(n.Flowtable[:i], n.Flowtable[i+1:]...)
			return true
		}
	}
	return false
}

// AddLink appends an intra-node link.
func (n *Node) AddLink(l *Link) *Link {
	l.ownerNode = n
	l.doc = n.doc
	n.Links = append(n.Links, l)
	return l
}

// SetMetadata inserts or updates a node metadata entry.
func (n *Node) SetMetadata(key, value string) {
	for _, m := range n.Metadata {
		if m.Key == key {
			m.Value = value
			return
		}
	}
	n.Metadata = append(n.Metadata, &Metadata{Key: key, Value: value})
}

// MetadataValue returns the node metadata value for key.
func (n *Node) MetadataValue(key string) (string, bool) {
	for _, m := range n.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// SAPData carries inter-domain attributes of a SAP-typed port.
type SAPData struct {
	Technology *string
	Role       *string
	Resources  *LinkResource
}

func (s *SAPData) equal(o *SAPData) bool {
	if (s == nil) != (o == nil) {
		return false
	}
	if s == nil {
		return true
	}
	return leafEq(s.Technology, o.Technology) && leafEq(s.Role, o.Role) &&
		s.Resources.equal(o.Resources)
}

// Control names the SDN controller endpoints of a port.
type Control struct {
	Controller   *string
	Orchestrator *string
}

func (c *Control) equal(o *Control) bool {
	if (c == nil) != (o == nil) {
		return false
	}
	if c == nil {
		return true
	}
	return leafEq(c.Controller, o.Controller) &&
		leafEq(c.Orchestrator, o.Orchestrator)
}

// L3Address is one entry of a port's layer-3 address list.
type L3Address struct {
	ID        string
	Name      *string
	Configure *string
	Client    *string
	Requested *string
	Provided  *string
}

func (a *L3Address) equal(o *L3Address) bool {
	return a.ID == o.ID && leafEq(a.Name, o.Name) &&
		leafEq(a.Configure, o.Configure) && leafEq(a.Client, o.Client) &&
		leafEq(a.Requested, o.Requested) && leafEq(a.Provided, o.Provided)
}

// Addresses groups the address leaves of a port.
type Addresses struct {
	L2 *string
	L4 *string
	L3 []*L3Address
}

func (a *Addresses) equal(o *Addresses) bool {
	if (a == nil) != (o == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if !leafEq(a.L2, o.L2) || !leafEq(a.L4, o.L4) || len(a.L3) != len(o.L3) {
		return false
	}
	for i := range a.L3 {
		if !a.L3[i].equal(o.L3[i]) {
			return false
		}
	}
	return true
}

// Port is a connection point of a node.
type Port struct {
	ID         string
	Name       *string
	PortType   string
	Capability *string
	SAP        *string
	SAPData    *SAPData
	Control    *Control
	Addresses  *Addresses
	Metadata   []*Metadata
	Operation  string

	owner *Node
}

// NewPort creates a detached port.
func NewPort(id, portType string) *Port {
	return &Port{ID: id, PortType: portType}
}

// Owner returns the node that holds this port.
func (p *Port) Owner() *Node { return p.owner }

// SetMetadata inserts or updates a port metadata entry.
func (p *Port) SetMetadata(key, value string) {
	for _, m := range p.Metadata {
		if m.Key == key {
			m.Value = value
			return
		}
	}
	p.Metadata = append(p.Metadata, &Metadata{Key: key, Value: value})
}

// Flowentry is one row of a node's flow table. Port and Out are handles to
// the referenced ports; they serialize as leafref paths. A reference into
// another domain's tree (a URI-like path) cannot be resolved to a handle and
// is kept verbatim in PortExternal/OutExternal instead.
type Flowentry struct {
	ID           string
	Priority     *string
	Port         *Port
	PortExternal string
	Match        *string
	Action       *string
	Out          *Port
	OutExternal  string
	Name         *string
	Resources    *LinkResource
	Constraints  Constraints
	Operation    string

	owner *Node
}

// Owner returns the node holding this flow entry.
func (fe *Flowentry) Owner() *Node { return fe.owner }

// Link connects two ports, either inside a node or across nodes at the root.
// Src and Dst are handles; they serialize as leafref paths.
type Link struct {
	ID        string
	Name      *string
	Src       *Port
	Dst       *Port
	Resources *LinkResource
	Operation string

	doc       *Virtualizer
	ownerNode *Node
}

// ConstraintAffinity pins an object (an NF instance) together with others
// carrying the same id.
type ConstraintAffinity struct {
	ID        string
	Object    *Node
	Operation string
}

// ConstraintAntiaffinity keeps an object apart from others with the same id.
type ConstraintAntiaffinity struct {
	ID        string
	Object    *Node
	Operation string
}

// ConstraintVariable names an object for use in constraint formulas.
type ConstraintVariable struct {
	ID        string
	Object    *Node
	Operation string
}

// Constraint is a named algebraic formula over variables.
type Constraint struct {
	ID        string
	Formula   string
	Operation string
}

// Constraints groups the placement and formula constraints of a node.
type Constraints struct {
	Affinity      []*ConstraintAffinity
	Antiaffinity  []*ConstraintAntiaffinity
	Variables     []*ConstraintVariable
	Constraint    []*Constraint
	Restorability *string
}

// Empty reports whether no constraint of any kind is present.
func (c *Constraints) Empty() bool {
	return len(c.Affinity) == 0 && len(c.Antiaffinity) == 0 &&
		len(c.Variables) == 0 && len(c.Constraint) == 0 &&
		c.Restorability == nil
}

// AddConstraint appends a formula constraint, replacing one with the same id.
func (c *Constraints) AddConstraint(id, formula string) {
	for _, cc := range c.Constraint {
		if cc.ID == id {
			cc.Formula = formula
			return
		}
	}
	c.Constraint = append(c.Constraint, &Constraint{ID: id, Formula: formula})
}

// RemoveConstraint deletes the formula constraint with the given id.
func (c *Constraints) RemoveConstraint(id string) bool {
	for i, cc := range c.Constraint {
		if cc.ID == id {
			c.Constraint = append(c.Constraint[:i], c.Constraint[i+1:]...)
			return true
		}
	}
	return false
}

// rewire refreshes doc/owner back-references after structural edits such as
// unmarshal or clone.
func (v *Virtualizer) rewire() {
	for _, n := range v.Nodes {
		n.rewire(v, nil)
	}
	for _, l := range v.Links {
		l.doc = v
		l.ownerNode = nil
	}
}

func (n *Node) rewire(doc *Virtualizer, owner *Node) {
	n.doc = doc
	n.owner = owner
	for _, p := range n.Ports {
		p.owner = n
	}
	for _, fe := range n.Flowtable {
		fe.owner = n
	}
	for _, l := range n.Links {
		l.doc = doc
		l.ownerNode = n
	}
	for _, nf := range n.NFInstances {
		nf.rewire(doc, n)
	}
}

// String renders a short identity for diagnostics.
func (v *Virtualizer) String() string {
	return fmt.Sprintf("Virtualizer(id=%s, nodes=%d)", v.ID, len(v.Nodes))
}
