package virtualizer

// Clone returns a fully independent deep copy of the document. Handles held
// by flow entries, links and constraints are remapped to the copied elements,
// so mutating the clone never touches the original. Callers must clone
// before applying an incremental patch that should leave the base intact.
func (v *Virtualizer) Clone() *Virtualizer {
	if v == nil {
		return nil
	}
	out := &Virtualizer{
		ID:       v.ID,
		Name:     cloneLeaf(v.Name),
		Version:  cloneLeaf(v.Version),
		relative: v.relative,
	}
	ports := make(map[*Port]*Port)
	nodes := make(map[*Node]*Node)
	for _, n := range v.Nodes {
		out.Nodes = append(out.Nodes, n.clone(ports, nodes))
	}
	for _, l := range v.Links {
		out.Links = append(out.Links, l.clone(ports))
	}
	for _, m := range v.Metadata {
		out.Metadata = append(out.Metadata, &Metadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	out.rewire()
	// Handle fields were copied verbatim by clone; swap them to the copies.
	out.remapRefs(ports, nodes)
	return out
}

// remapPort swaps a handle for its copy; a handle outside the copied region
// is kept as-is so partial subtree copies still reference valid elements.
func remapPort(m map[*Port]*Port, p *Port) *Port {
	if c, ok := m[p]; ok {
		return c
	}
	return p
}

func remapNode(m map[*Node]*Node, n *Node) *Node {
	if c, ok := m[n]; ok {
		return c
	}
	return n
}

func (v *Virtualizer) remapRefs(ports map[*Port]*Port, nodes map[*Node]*Node) {
	for _, l := range v.Links {
		l.Src = remapPort(ports, l.Src)
		l.Dst = remapPort(ports, l.Dst)
	}
	for _, n := range v.Nodes {
		n.remapRefs(ports, nodes)
	}
}

func (n *Node) remapRefs(ports map[*Port]*Port, nodes map[*Node]*Node) {
	for _, fe := range n.Flowtable {
		fe.Port = remapPort(ports, fe.Port)
		fe.Out = remapPort(ports, fe.Out)
		for _, a := range fe.Constraints.Affinity {
			a.Object = remapNode(nodes, a.Object)
		}
		for _, a := range fe.Constraints.Antiaffinity {
			a.Object = remapNode(nodes, a.Object)
		}
		for _, vr := range fe.Constraints.Variables {
			vr.Object = remapNode(nodes, vr.Object)
		}
	}
	for _, l := range n.Links {
		l.Src = remapPort(ports, l.Src)
		l.Dst = remapPort(ports, l.Dst)
	}
	for _, a := range n.Constraints.Affinity {
		a.Object = remapNode(nodes, a.Object)
	}
	for _, a := range n.Constraints.Antiaffinity {
		a.Object = remapNode(nodes, a.Object)
	}
	for _, vr := range n.Constraints.Variables {
		vr.Object = remapNode(nodes, vr.Object)
	}
	for _, nf := range n.NFInstances {
		nf.remapRefs(ports, nodes)
	}
}

func (n *Node) clone(ports map[*Port]*Port, nodes map[*Node]*Node) *Node {
	out := &Node{
		ID:        n.ID,
		Name:      cloneLeaf(n.Name),
		Type:      cloneLeaf(n.Type),
		Status:    cloneLeaf(n.Status),
		Operation: n.Operation,
	}
	nodes[n] = out
	if n.Resources != nil {
		out.Resources = &SoftwareResource{
			CPU:     cloneLeaf(n.Resources.CPU),
			Mem:     cloneLeaf(n.Resources.Mem),
			Storage: cloneLeaf(n.Resources.Storage),
			Cost:    cloneLeaf(n.Resources.Cost),
			Zone:    cloneLeaf(n.Resources.Zone),
		}
	}
	for _, p := range n.Ports {
		out.Ports = append(out.Ports, p.clone(ports))
	}
	for _, nf := range n.NFInstances {
		out.NFInstances = append(out.NFInstances, nf.clone(ports, nodes))
	}
	for _, s := range n.SupportedNFs {
		out.SupportedNFs = append(out.SupportedNFs,
			&Node{ID: s.ID, Type: cloneLeaf(s.Type)})
	}
	for _, fe := range n.Flowtable {
		out.Flowtable = append(out.Flowtable, &Flowentry{
			ID:           fe.ID,
			Priority:     cloneLeaf(fe.Priority),
			Port:         fe.Port, // remapped afterwards
			PortExternal: fe.PortExternal,
			Match:        cloneLeaf(fe.Match),
			Action:       cloneLeaf(fe.Action),
			Out:          fe.Out,
			OutExternal:  fe.OutExternal,
			Name:         cloneLeaf(fe.Name),
			Resources:    cloneLinkResource(fe.Resources),
			Constraints:  fe.Constraints.clone(),
			Operation:    fe.Operation,
		})
	}
	for _, l := range n.Links {
		out.Links = append(out.Links, l.clone(ports))
	}
	for _, m := range n.Metadata {
		out.Metadata = append(out.Metadata, &Metadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	out.Constraints = n.Constraints.clone()
	return out
}

func (p *Port) clone(ports map[*Port]*Port) *Port {
	out := &Port{
		ID:         p.ID,
		Name:       cloneLeaf(p.Name),
		PortType:   p.PortType,
		Capability: cloneLeaf(p.Capability),
		SAP:        cloneLeaf(p.SAP),
		Operation:  p.Operation,
	}
	ports[p] = out
	if p.SAPData != nil {
		out.SAPData = &SAPData{
			Technology: cloneLeaf(p.SAPData.Technology),
			Role:       cloneLeaf(p.SAPData.Role),
			Resources:  cloneLinkResource(p.SAPData.Resources),
		}
	}
	if p.Control != nil {
		out.Control = &Control{
			Controller:   cloneLeaf(p.Control.Controller),
			Orchestrator: cloneLeaf(p.Control.Orchestrator),
		}
	}
	if p.Addresses != nil {
		addr := &Addresses{
			L2: cloneLeaf(p.Addresses.L2),
			L4: cloneLeaf(p.Addresses.L4),
		}
		for _, l3 := range p.Addresses.L3 {
			addr.L3 = append(addr.L3, &L3Address{
				ID:        l3.ID,
				Name:      cloneLeaf(l3.Name),
				Configure: cloneLeaf(l3.Configure),
				Client:    cloneLeaf(l3.Client),
				Requested: cloneLeaf(l3.Requested),
				Provided:  cloneLeaf(l3.Provided),
			})
		}
		out.Addresses = addr
	}
	for _, m := range p.Metadata {
		out.Metadata = append(out.Metadata, &Metadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	return out
}

func (l *Link) clone(ports map[*Port]*Port) *Link {
	return &Link{
		ID:        l.ID,
		Name:      cloneLeaf(l.Name),
		Src:       l.Src, // remapped afterwards
		Dst:       l.Dst,
		Resources: cloneLinkResource(l.Resources),
		Operation: l.Operation,
	}
}

func (c Constraints) clone() Constraints {
	out := Constraints{Restorability: cloneLeaf(c.Restorability)}
	for _, a := range c.Affinity {
		out.Affinity = append(out.Affinity, &ConstraintAffinity{
			ID: a.ID, Object: a.Object, Operation: a.Operation,
		})
	}
	for _, a := range c.Antiaffinity {
		out.Antiaffinity = append(out.Antiaffinity, &ConstraintAntiaffinity{
			ID: a.ID, Object: a.Object, Operation: a.Operation,
		})
	}
	for _, v := range c.Variables {
		out.Variables = append(out.Variables, &ConstraintVariable{
			ID: v.ID, Object: v.Object, Operation: v.Operation,
		})
	}
	for _, cc := range c.Constraint {
		out.Constraint = append(out.Constraint, &Constraint{
			ID: cc.ID, Formula: cc.Formula, Operation: cc.Operation,
		})
	}
	return out
}

func cloneLeaf(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneLinkResource(r *LinkResource) *LinkResource {
	if r == nil {
		return nil
	}
	return &LinkResource{
		Delay:     cloneLeaf(r.Delay),
		Bandwidth: cloneLeaf(r.Bandwidth),
		Cost:      cloneLeaf(r.Cost),
		QoS:       cloneLeaf(r.QoS),
	}
}
