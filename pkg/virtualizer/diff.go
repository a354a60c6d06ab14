package virtualizer

import (
	"errors"
)

// ErrBindingMismatch is returned when the two operands of a diff are bound
// with different leafref path modes. Mixing modes produces spurious diffs,
// so it is rejected up front.
var ErrBindingMismatch = errors.New("diff operands bound with different path modes")

// Diff computes a minimal edit-config fragment turning base into derived.
// Unchanged subtrees are omitted; removed elements appear as stubs marked
// with a delete operation. Root id and name are forced equal before
// comparison, so the fragment describes content changes only. The fragment
// shares port and node handles with derived; serialize or Clone it before
// mutating derived.
func Diff(base, derived *Virtualizer) (*Virtualizer, error) {
	if base.relative != derived.relative {
		return nil, ErrBindingMismatch
	}
	frag := &Virtualizer{
		ID:       base.ID,
		Name:     cloneLeaf(base.Name),
		Version:  cloneLeaf(base.Version),
		relative: base.relative,
	}
	for _, dn := range derived.Nodes {
		bn := base.Node(dn.ID)
		if bn == nil {
			frag.Nodes = append(frag.Nodes, copyNodeKeepRefs(dn))
			continue
		}
		if changed := diffNode(bn, dn); changed != nil {
			frag.Nodes = append(frag.Nodes, changed)
		}
	}
	for _, bn := range base.Nodes {
		if derived.Node(bn.ID) == nil {
			frag.Nodes = append(frag.Nodes,
				&Node{ID: bn.ID, Operation: OpDelete})
		}
	}
	diffLinks(base.Links, derived.Links, &frag.Links)
	diffMetadata(base.Metadata, derived.Metadata, &frag.Metadata)
	frag.rewire()
	return frag, nil
}

// IsEmpty reports whether a diff fragment carries no change at all.
func (v *Virtualizer) IsEmpty() bool {
	return len(v.Nodes) == 0 && len(v.Links) == 0 && len(v.Metadata) == 0
}

func diffNode(b, d *Node) *Node {
	out := &Node{ID: b.ID}
	changed := false

	if !leafEq(b.Name, d.Name) {
		out.Name = cloneLeaf(d.Name)
		changed = true
	}
	if !leafEq(b.Type, d.Type) {
		out.Type = cloneLeaf(d.Type)
		changed = true
	}
	if !leafEq(b.Status, d.Status) {
		out.Status = cloneLeaf(d.Status)
		changed = true
	}
	if !b.Resources.equal(d.Resources) {
		if d.Resources != nil {
			out.Resources = &SoftwareResource{
				CPU:     cloneLeaf(d.Resources.CPU),
				Mem:     cloneLeaf(d.Resources.Mem),
				Storage: cloneLeaf(d.Resources.Storage),
				Cost:    cloneLeaf(d.Resources.Cost),
				Zone:    cloneLeaf(d.Resources.Zone),
			}
		}
		changed = true
	}

	for _, dp := range d.Ports {
		bp := b.Port(dp.ID)
		if bp == nil || !portEqual(bp, dp) {
			out.AddPort(copyPort(dp))
			changed = true
		}
	}
	for _, bp := range b.Ports {
		if d.Port(bp.ID) == nil {
			out.AddPort(&Port{ID: bp.ID, Operation: OpDelete})
			changed = true
		}
	}

	for _, dnf := range d.NFInstances {
		bnf := b.NFInstance(dnf.ID)
		if bnf == nil {
			out.AddNFInstance(copyNodeKeepRefs(dnf))
			changed = true
			continue
		}
		if sub := diffNode(bnf, dnf); sub != nil {
			out.AddNFInstance(sub)
			changed = true
		}
	}
	for _, bnf := range b.NFInstances {
		if d.NFInstance(bnf.ID) == nil {
			out.AddNFInstance(&Node{ID: bnf.ID, Operation: OpDelete})
			changed = true
		}
	}

	if !supportedEqual(b.SupportedNFs, d.SupportedNFs) {
		for _, s := range d.SupportedNFs {
			out.SupportedNFs = append(out.SupportedNFs,
				&Node{ID: s.ID, Type: cloneLeaf(s.Type)})
		}
		changed = true
	}

	for _, dfe := range d.Flowtable {
		bfe := b.Flowentry(dfe.ID)
		if bfe == nil || !flowentryEqual(bfe, dfe) {
			out.AddFlowentry(copyFlowentry(dfe))
			changed = true
		}
	}
	for _, bfe := range b.Flowtable {
		if d.Flowentry(bfe.ID) == nil {
			out.AddFlowentry(&Flowentry{ID: bfe.ID, Operation: OpDelete})
			changed = true
		}
	}

	if diffLinks(b.Links, d.Links, &out.Links) {
		changed = true
	}
	if diffMetadata(b.Metadata, d.Metadata, &out.Metadata) {
		changed = true
	}
	if diffConstraints(&b.Constraints, &d.Constraints, &out.Constraints) {
		changed = true
	}

	if !changed {
		return nil
	}
	return out
}

func diffLinks(base, derived []*Link, out *[]*Link) bool {
	find := func(list []*Link, id string) *Link {
		for _, l := range list {
			if l.ID == id {
				return l
			}
		}
		return nil
	}
	changed := false
	for _, dl := range derived {
		bl := find(base, dl.ID)
		if bl == nil || !linkEqual(bl, dl) {
			*out = append(*out, copyLink(dl))
			changed = true
		}
	}
	for _, bl := range base {
		if find(derived, bl.ID) == nil {
			*out = append(*out, &Link{ID: bl.ID, Operation: OpDelete})
			changed = true
		}
	}
	return changed
}

func diffMetadata(base, derived []*Metadata, out *[]*Metadata) bool {
	find := func(list []*Metadata, key string) *Metadata {
		for _, m := range list {
			if m.Key == key {
				return m
			}
		}
		return nil
	}
	changed := false
	for _, dm := range derived {
		bm := find(base, dm.Key)
		if bm == nil || bm.Value != dm.Value {
			*out = append(*out, &Metadata{Key: dm.Key, Value: dm.Value})
			changed = true
		}
	}
	for _, bm := range base {
		if find(derived, bm.Key) == nil {
			*out = append(*out, &Metadata{Key: bm.Key, Operation: OpDelete})
			changed = true
		}
	}
	return changed
}

func diffConstraints(b, d, out *Constraints) bool {
	changed := false
	for _, dc := range d.Constraint {
		var bc *Constraint
		for _, c := range b.Constraint {
			if c.ID == dc.ID {
				bc = c
				break
			}
		}
		if bc == nil || bc.Formula != dc.Formula {
			out.Constraint = append(out.Constraint,
				&Constraint{ID: dc.ID, Formula: dc.Formula})
			changed = true
		}
	}
	for _, bc := range b.Constraint {
		found := false
		for _, c := range d.Constraint {
			if c.ID == bc.ID {
				found = true
				break
			}
		}
		if !found {
			out.Constraint = append(out.Constraint,
				&Constraint{ID: bc.ID, Operation: OpDelete})
			changed = true
		}
	}
	if !refConstraintsEqual(b, d) {
		cloned := d.clone()
		out.Affinity = cloned.Affinity
		out.Antiaffinity = cloned.Antiaffinity
		out.Variables = cloned.Variables
		changed = true
	}
	if !leafEq(b.Restorability, d.Restorability) {
		out.Restorability = cloneLeaf(d.Restorability)
		changed = true
	}
	return changed
}

func refConstraintsEqual(a, b *Constraints) bool {
	if len(a.Affinity) != len(b.Affinity) ||
		len(a.Antiaffinity) != len(b.Antiaffinity) ||
		len(a.Variables) != len(b.Variables) {
		return false
	}
	for i := range a.Affinity {
		if a.Affinity[i].ID != b.Affinity[i].ID ||
			nodeRefKey(a.Affinity[i].Object) != nodeRefKey(b.Affinity[i].Object) {
			return false
		}
	}
	for i := range a.Antiaffinity {
		if a.Antiaffinity[i].ID != b.Antiaffinity[i].ID ||
			nodeRefKey(a.Antiaffinity[i].Object) != nodeRefKey(b.Antiaffinity[i].Object) {
			return false
		}
	}
	for i := range a.Variables {
		if a.Variables[i].ID != b.Variables[i].ID ||
			nodeRefKey(a.Variables[i].Object) != nodeRefKey(b.Variables[i].Object) {
			return false
		}
	}
	return true
}

func supportedEqual(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	have := make(map[string]bool, len(a))
	for _, n := range a {
		have[n.ID] = true
	}
	for _, n := range b {
		if !have[n.ID] {
			return false
		}
	}
	return true
}

func portEqual(a, b *Port) bool {
	if a.ID != b.ID || a.PortType != b.PortType {
		return false
	}
	if !leafEq(a.Name, b.Name) || !leafEq(a.Capability, b.Capability) ||
		!leafEq(a.SAP, b.SAP) {
		return false
	}
	if !a.SAPData.equal(b.SAPData) || !a.Control.equal(b.Control) ||
		!a.Addresses.equal(b.Addresses) {
		return false
	}
	return metadataEqual(a.Metadata, b.Metadata)
}

func flowentryEqual(a, b *Flowentry) bool {
	return a.ID == b.ID &&
		leafEq(a.Priority, b.Priority) &&
		leafEq(a.Match, b.Match) &&
		leafEq(a.Action, b.Action) &&
		leafEq(a.Name, b.Name) &&
		refKey(a.Port) == refKey(b.Port) &&
		refKey(a.Out) == refKey(b.Out) &&
		a.PortExternal == b.PortExternal &&
		a.OutExternal == b.OutExternal &&
		a.Resources.equal(b.Resources)
}

func linkEqual(a, b *Link) bool {
	return a.ID == b.ID &&
		leafEq(a.Name, b.Name) &&
		refKey(a.Src) == refKey(b.Src) &&
		refKey(a.Dst) == refKey(b.Dst) &&
		a.Resources.equal(b.Resources)
}

func metadataEqual(a, b []*Metadata) bool {
	if len(a) != len(b) {
		return false
	}
	have := make(map[string]string, len(a))
	for _, m := range a {
		have[m.Key] = m.Value
	}
	for _, m := range b {
		v, ok := have[m.Key]
		if !ok || v != m.Value {
			return false
		}
	}
	return true
}

// copyNodeKeepRefs deep-copies a node subtree. Handles that point outside
// the subtree keep referring to the source document, so the copy serializes
// the same leafref paths.
func copyNodeKeepRefs(n *Node) *Node {
	ports := make(map[*Port]*Port)
	nodes := make(map[*Node]*Node)
	out := n.clone(ports, nodes)
	out.remapRefs(ports, nodes)
	return out
}

func copyPort(p *Port) *Port {
	m := make(map[*Port]*Port)
	return p.clone(m)
}

func copyFlowentry(fe *Flowentry) *Flowentry {
	return &Flowentry{
		ID:           fe.ID,
		Priority:     cloneLeaf(fe.Priority),
		Port:         fe.Port,
		PortExternal: fe.PortExternal,
		Match:        cloneLeaf(fe.Match),
		Action:       cloneLeaf(fe.Action),
		Out:          fe.Out,
		OutExternal:  fe.OutExternal,
		Name:         cloneLeaf(fe.Name),
		Resources:    cloneLinkResource(fe.Resources),
		Constraints:  fe.Constraints.clone(),
	}
}

func copyLink(l *Link) *Link {
	return &Link{
		ID:        l.ID,
		Name:      cloneLeaf(l.Name),
		Src:       l.Src,
		Dst:       l.Dst,
		Resources: cloneLinkResource(l.Resources),
	}
}
