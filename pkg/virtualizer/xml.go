package virtualizer

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nfvio/topoconv/pkg/logging"
)

// Wire representation. The exported model keeps handles for cross-references;
// these structs carry the leafref path strings that actually travel on the
// wire.

type xVirtualizer struct {
	XMLName  xml.Name    `xml:"virtualizer"`
	ID       string      `xml:"id"`
	Name     *string     `xml:"name"`
	Nodes    *xNodes     `xml:"nodes"`
	Links    *xLinks     `xml:"links"`
	Metadata []xMetadata `xml:"metadata"`
	Version  *string     `xml:"version"`
}

type xNodes struct {
	Node []*xNode `xml:"node"`
}

type xLinks struct {
	Link []*xLink `xml:"link"`
}

type xMetadata struct {
	Operation string `xml:"operation,attr,omitempty"`
	Key       string `xml:"key"`
	Value     string `xml:"value"`
}

type xNode struct {
	Operation    string        `xml:"operation,attr,omitempty"`
	ID           string        `xml:"id"`
	Name         *string       `xml:"name"`
	Type         *string       `xml:"type"`
	Status       *string       `xml:"status"`
	Ports        *xPorts       `xml:"ports"`
	Links        *xLinks       `xml:"links"`
	Resources    *xSoftwareRes `xml:"resources"`
	NFInstances  *xNodes       `xml:"NF_instances"`
	Capabilities *xCapability  `xml:"capabilities"`
	Flowtable    *xFlowtable   `xml:"flowtable"`
	Constraints  *xConstraints `xml:"constraints"`
	Metadata     []xMetadata   `xml:"metadata"`
}

type xCapability struct {
	SupportedNFs *xNodes `xml:"supported_NFs"`
}

type xPorts struct {
	Port []*xPort `xml:"port"`
}

type xPort struct {
	Operation  string      `xml:"operation,attr,omitempty"`
	ID         string      `xml:"id"`
	Name       *string     `xml:"name"`
	PortType   string      `xml:"port_type"`
	Capability *string     `xml:"capability"`
	SAP        *string     `xml:"sap"`
	SAPData    *xSAPData   `xml:"sap_data"`
	Control    *xControl   `xml:"control"`
	Addresses  *xAddresses `xml:"addresses"`
	Metadata   []xMetadata `xml:"metadata"`
}

type xSAPData struct {
	Technology *string   `xml:"technology"`
	Role       *string   `xml:"role"`
	Resources  *xLinkRes `xml:"resources"`
}

type xControl struct {
	Controller   *string `xml:"controller"`
	Orchestrator *string `xml:"orchestrator"`
}

type xAddresses struct {
	L2 *string   `xml:"l2"`
	L4 *string   `xml:"l4"`
	L3 []*xL3Addr `xml:"l3"`
}

type xL3Addr struct {
	ID        string  `xml:"id"`
	Name      *string `xml:"name"`
	Configure *string `xml:"configure"`
	Client    *string `xml:"client"`
	Requested *string `xml:"requested"`
	Provided  *string `xml:"provided"`
}

type xSoftwareRes struct {
	CPU     *string `xml:"cpu"`
	Mem     *string `xml:"mem"`
	Storage *string `xml:"storage"`
	Cost    *string `xml:"cost"`
	Zone    *string `xml:"zone"`
}

type xLinkRes struct {
	Delay     *string `xml:"delay"`
	Bandwidth *string `xml:"bandwidth"`
	Cost      *string `xml:"cost"`
	QoS       *string `xml:"qos"`
}

type xFlowtable struct {
	Flowentry []*xFlowentry `xml:"flowentry"`
}

type xFlowentry struct {
	Operation   string        `xml:"operation,attr,omitempty"`
	ID          string        `xml:"id"`
	Priority    *string       `xml:"priority"`
	Port        *string       `xml:"port"`
	Match       *string       `xml:"match"`
	Action      *string       `xml:"action"`
	Out         *string       `xml:"out"`
	Name        *string       `xml:"name"`
	Resources   *xLinkRes     `xml:"resources"`
	Constraints *xConstraints `xml:"constraints"`
}

type xLink struct {
	Operation string    `xml:"operation,attr,omitempty"`
	ID        string    `xml:"id"`
	Name      *string   `xml:"name"`
	Src       *string   `xml:"src"`
	Dst       *string   `xml:"dst"`
	Resources *xLinkRes `xml:"resources"`
}

type xConstraints struct {
	Affinity      []*xRefConstraint `xml:"affinity"`
	Antiaffinity  []*xRefConstraint `xml:"antiaffinity"`
	Variable      []*xRefConstraint `xml:"variable"`
	Constraint    []*xConstraint    `xml:"constraint"`
	Restorability *string           `xml:"restorability"`
}

type xRefConstraint struct {
	Operation string  `xml:"operation,attr,omitempty"`
	ID        string  `xml:"id"`
	Object    *string `xml:"object"`
}

type xConstraint struct {
	Operation string `xml:"operation,attr,omitempty"`
	ID        string `xml:"id"`
	Formula   string `xml:"formula"`
}

// Parse builds a document from its XML form. Leafref paths are resolved to
// handles; a flow entry or link whose reference cannot be resolved is
// dropped with a warning rather than failing the whole parse.
func Parse(data []byte, log logging.Logger) (*Virtualizer, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.Component("virtualizer"))

	var wire xVirtualizer
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal virtualizer: %w", err)
	}
	v := &Virtualizer{
		ID:      wire.ID,
		Name:    wire.Name,
		Version: wire.Version,
	}
	for _, m := range wire.Metadata {
		v.Metadata = append(v.Metadata, &Metadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}

	// First pass builds the structure so leafrefs have something to hit.
	type pendingFE struct {
		node *Node
		fe   *Flowentry
		wire *xFlowentry
	}
	type pendingLink struct {
		link *Link
		wire *xLink
	}
	type pendingRef struct {
		node *Node
		set  func(*Node)
		ref  string
		kind string
	}
	var fes []pendingFE
	var links []pendingLink
	var refs []pendingRef

	var buildNode func(xn *xNode) *Node
	buildNode = func(xn *xNode) *Node {
		n := &Node{
			ID:        xn.ID,
			Name:      xn.Name,
			Type:      xn.Type,
			Status:    xn.Status,
			Operation: xn.Operation,
		}
		if xn.Resources != nil {
			n.Resources = &SoftwareResource{
				CPU:     xn.Resources.CPU,
				Mem:     xn.Resources.Mem,
				Storage: xn.Resources.Storage,
				Cost:    xn.Resources.Cost,
				Zone:    xn.Resources.Zone,
			}
		}
		if xn.Ports != nil {
			for _, xp := range xn.Ports.Port {
				n.AddPort(portFromWire(xp))
			}
		}
		if xn.NFInstances != nil {
			for _, xnf := range xn.NFInstances.Node {
				n.AddNFInstance(buildNode(xnf))
			}
		}
		if xn.Capabilities != nil && xn.Capabilities.SupportedNFs != nil {
			for _, xs := range xn.Capabilities.SupportedNFs.Node {
				n.SupportedNFs = append(n.SupportedNFs,
					&Node{ID: xs.ID, Type: xs.Type})
			}
		}
		if xn.Flowtable != nil {
			for _, xfe := range xn.Flowtable.Flowentry {
				fe := &Flowentry{
					ID:        xfe.ID,
					Priority:  xfe.Priority,
					Match:     xfe.Match,
					Action:    xfe.Action,
					Name:      xfe.Name,
					Resources: linkResFromWire(xfe.Resources),
					Operation: xfe.Operation,
				}
				if xfe.Constraints != nil {
					fe.Constraints.Restorability = xfe.Constraints.Restorability
					for _, xc := range xfe.Constraints.Constraint {
						fe.Constraints.Constraint = append(fe.Constraints.Constraint,
							&Constraint{ID: xc.ID, Formula: xc.Formula, Operation: xc.Operation})
					}
					for _, xa := range xfe.Constraints.Affinity {
						a := &ConstraintAffinity{ID: xa.ID, Operation: xa.Operation}
						fe.Constraints.Affinity = append(fe.Constraints.Affinity, a)
						if xa.Object != nil {
							refs = append(refs, pendingRef{
								node: n, ref: *xa.Object, kind: "affinity",
								set: func(t *Node) { a.Object = t },
							})
						}
					}
					for _, xa := range xfe.Constraints.Antiaffinity {
						a := &ConstraintAntiaffinity{ID: xa.ID, Operation: xa.Operation}
						fe.Constraints.Antiaffinity = append(fe.Constraints.Antiaffinity, a)
						if xa.Object != nil {
							refs = append(refs, pendingRef{
								node: n, ref: *xa.Object, kind: "antiaffinity",
								set: func(t *Node) { a.Object = t },
							})
						}
					}
					for _, xv := range xfe.Constraints.Variable {
						vr := &ConstraintVariable{ID: xv.ID, Operation: xv.Operation}
						fe.Constraints.Variables = append(fe.Constraints.Variables, vr)
						if xv.Object != nil {
							refs = append(refs, pendingRef{
								node: n, ref: *xv.Object, kind: "variable",
								set: func(t *Node) { vr.Object = t },
							})
						}
					}
				}
				n.AddFlowentry(fe)
				fes = append(fes, pendingFE{node: n, fe: fe, wire: xfe})
			}
		}
		if xn.Links != nil {
			for _, xl := range xn.Links.Link {
				l := &Link{
					ID:        xl.ID,
					Name:      xl.Name,
					Resources: linkResFromWire(xl.Resources),
					Operation: xl.Operation,
				}
				n.AddLink(l)
				links = append(links, pendingLink{link: l, wire: xl})
			}
		}
		for _, m := range xn.Metadata {
			n.Metadata = append(n.Metadata, &Metadata{
				Key: m.Key, Value: m.Value, Operation: m.Operation,
			})
		}
		if xn.Constraints != nil {
			c := &n.Constraints
			c.Restorability = xn.Constraints.Restorability
			for _, xa := range xn.Constraints.Affinity {
				a := &ConstraintAffinity{ID: xa.ID, Operation: xa.Operation}
				c.Affinity = append(c.Affinity, a)
				if xa.Object != nil {
					refs = append(refs, pendingRef{
						node: n, ref: *xa.Object, kind: "affinity",
						set: func(t *Node) { a.Object = t },
					})
				}
			}
			for _, xa := range xn.Constraints.Antiaffinity {
				a := &ConstraintAntiaffinity{ID: xa.ID, Operation: xa.Operation}
				c.Antiaffinity = append(c.Antiaffinity, a)
				if xa.Object != nil {
					refs = append(refs, pendingRef{
						node: n, ref: *xa.Object, kind: "antiaffinity",
						set: func(t *Node) { a.Object = t },
					})
				}
			}
			for _, xv := range xn.Constraints.Variable {
				vr := &ConstraintVariable{ID: xv.ID, Operation: xv.Operation}
				c.Variables = append(c.Variables, vr)
				if xv.Object != nil {
					refs = append(refs, pendingRef{
						node: n, ref: *xv.Object, kind: "variable",
						set: func(t *Node) { vr.Object = t },
					})
				}
			}
			for _, xc := range xn.Constraints.Constraint {
				c.Constraint = append(c.Constraint, &Constraint{
					ID: xc.ID, Formula: xc.Formula, Operation: xc.Operation,
				})
			}
		}
		return n
	}

	if wire.Nodes != nil {
		for _, xn := range wire.Nodes.Node {
			v.AddNode(buildNode(xn))
		}
	}
	if wire.Links != nil {
		for _, xl := range wire.Links.Link {
			l := &Link{
				ID:        xl.ID,
				Name:      xl.Name,
				Resources: linkResFromWire(xl.Resources),
				Operation: xl.Operation,
			}
			v.AddLink(l)
			links = append(links, pendingLink{link: l, wire: xl})
		}
	}
	v.rewire()

	// Second pass resolves leafrefs against the assembled structure.
	for _, p := range fes {
		base := p.fe.absPath()
		ok := true
		if p.wire.Port != nil {
			if strings.Contains(*p.wire.Port, "://") {
				p.fe.PortExternal = *p.wire.Port
			} else {
				port, _, err := v.resolveRef(*p.wire.Port, base)
				if err != nil {
					log.Warn("Dropping flowentry with unresolvable port",
						logging.String("flowentry", p.fe.ID), logging.Err(err))
					ok = false
				}
				p.fe.Port = port
			}
		}
		if ok && p.wire.Out != nil {
			if strings.Contains(*p.wire.Out, "://") {
				p.fe.OutExternal = *p.wire.Out
			} else {
				port, _, err := v.resolveRef(*p.wire.Out, base)
				if err != nil {
					log.Warn("Dropping flowentry with unresolvable out port",
						logging.String("flowentry", p.fe.ID), logging.Err(err))
					ok = false
				}
				p.fe.Out = port
			}
		}
		if !ok {
			p.node.RemoveFlowentry(p.fe.ID)
		}
	}
	for _, p := range links {
		base := p.link.absPath()
		ok := true
		if p.wire.Src != nil {
			port, _, err := v.resolveRef(*p.wire.Src, base)
			if err != nil {
				log.Warn("Dropping link with unresolvable src",
					logging.String("link", p.link.ID), logging.Err(err))
				ok = false
			}
			p.link.Src = port
		}
		if ok && p.wire.Dst != nil {
			port, _, err := v.resolveRef(*p.wire.Dst, base)
			if err != nil {
				log.Warn("Dropping link with unresolvable dst",
					logging.String("link", p.link.ID), logging.Err(err))
				ok = false
			}
			p.link.Dst = port
		}
		if !ok {
			if p.link.ownerNode != nil {
				removeLink(&p.link.ownerNode.Links, p.link)
			} else {
				removeLink(&v.Links, p.link)
			}
		}
	}
	for _, r := range refs {
		_, node, err := v.resolveRef(r.ref, r.node.absPath())
		if err != nil || node == nil {
			log.Warn("Unresolvable constraint object reference",
				logging.String("kind", r.kind), logging.Node(r.node.ID),
				logging.String("ref", r.ref))
			continue
		}
		r.set(node)
	}
	return v, nil
}

func removeLink(list *[]*Link, l *Link) {
	for i, cand := range *list {
		if cand == l {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

func portFromWire(xp *xPort) *Port {
	p := &Port{
		ID:         xp.ID,
		Name:       xp.Name,
		PortType:   xp.PortType,
		Capability: xp.Capability,
		SAP:        xp.SAP,
		Operation:  xp.Operation,
	}
	if xp.SAPData != nil {
		p.SAPData = &SAPData{
			Technology: xp.SAPData.Technology,
			Role:       xp.SAPData.Role,
			Resources:  linkResFromWire(xp.SAPData.Resources),
		}
	}
	if xp.Control != nil {
		p.Control = &Control{
			Controller:   xp.Control.Controller,
			Orchestrator: xp.Control.Orchestrator,
		}
	}
	if xp.Addresses != nil {
		addr := &Addresses{L2: xp.Addresses.L2, L4: xp.Addresses.L4}
		for _, l3 := range xp.Addresses.L3 {
			addr.L3 = append(addr.L3, &L3Address{
				ID:        l3.ID,
				Name:      l3.Name,
				Configure: l3.Configure,
				Client:    l3.Client,
				Requested: l3.Requested,
				Provided:  l3.Provided,
			})
		}
		p.Addresses = addr
	}
	for _, m := range xp.Metadata {
		p.Metadata = append(p.Metadata, &Metadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	return p
}

func linkResFromWire(r *xLinkRes) *LinkResource {
	if r == nil {
		return nil
	}
	return &LinkResource{
		Delay:     r.Delay,
		Bandwidth: r.Bandwidth,
		Cost:      r.Cost,
		QoS:       r.QoS,
	}
}

// Bytes serializes the document, rendering leafrefs in the bound path mode.
func (v *Virtualizer) Bytes() ([]byte, error) {
	wire := v.toWire()
	out, err := xml.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal virtualizer: %w", err)
	}
	return out, nil
}

func (v *Virtualizer) toWire() *xVirtualizer {
	wire := &xVirtualizer{
		ID:      v.ID,
		Name:    v.Name,
		Version: v.Version,
	}
	for _, m := range v.Metadata {
		wire.Metadata = append(wire.Metadata, xMetadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	if len(v.Nodes) > 0 {
		wire.Nodes = &xNodes{}
		for _, n := range v.Nodes {
			wire.Nodes.Node = append(wire.Nodes.Node, v.nodeToWire(n))
		}
	}
	if len(v.Links) > 0 {
		wire.Links = &xLinks{}
		for _, l := range v.Links {
			wire.Links.Link = append(wire.Links.Link, v.linkToWire(l))
		}
	}
	return wire
}

func (v *Virtualizer) nodeToWire(n *Node) *xNode {
	xn := &xNode{
		ID:        n.ID,
		Name:      n.Name,
		Type:      n.Type,
		Status:    n.Status,
		Operation: n.Operation,
	}
	if n.Resources != nil {
		xn.Resources = &xSoftwareRes{
			CPU:     n.Resources.CPU,
			Mem:     n.Resources.Mem,
			Storage: n.Resources.Storage,
			Cost:    n.Resources.Cost,
			Zone:    n.Resources.Zone,
		}
	}
	if len(n.Ports) > 0 {
		xn.Ports = &xPorts{}
		for _, p := range n.Ports {
			xn.Ports.Port = append(xn.Ports.Port, portToWire(p))
		}
	}
	if len(n.NFInstances) > 0 {
		xn.NFInstances = &xNodes{}
		for _, nf := range n.NFInstances {
			xn.NFInstances.Node = append(xn.NFInstances.Node, v.nodeToWire(nf))
		}
	}
	if len(n.SupportedNFs) > 0 {
		sup := &xNodes{}
		for _, s := range n.SupportedNFs {
			sup.Node = append(sup.Node, &xNode{ID: s.ID, Type: s.Type})
		}
		xn.Capabilities = &xCapability{SupportedNFs: sup}
	}
	if len(n.Flowtable) > 0 {
		xn.Flowtable = &xFlowtable{}
		for _, fe := range n.Flowtable {
			xfe := &xFlowentry{
				ID:        fe.ID,
				Priority:  fe.Priority,
				Match:     fe.Match,
				Action:    fe.Action,
				Name:      fe.Name,
				Resources: linkResToWire(fe.Resources),
				Operation: fe.Operation,
			}
			base := fe.absPath()
			if fe.Port != nil {
				xfe.Port = str(renderRef(v.relative, base, fe.Port.absPath()))
			} else if fe.PortExternal != "" {
				xfe.Port = str(fe.PortExternal)
			}
			if fe.Out != nil {
				xfe.Out = str(renderRef(v.relative, base, fe.Out.absPath()))
			} else if fe.OutExternal != "" {
				xfe.Out = str(fe.OutExternal)
			}
			if !fe.Constraints.Empty() {
				xfe.Constraints = constraintsToWire(v, &fe.Constraints, base)
			}
			xn.Flowtable.Flowentry = append(xn.Flowtable.Flowentry, xfe)
		}
	}
	if len(n.Links) > 0 {
		xn.Links = &xLinks{}
		for _, l := range n.Links {
			xn.Links.Link = append(xn.Links.Link, v.linkToWire(l))
		}
	}
	for _, m := range n.Metadata {
		xn.Metadata = append(xn.Metadata, xMetadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	if !n.Constraints.Empty() {
		xn.Constraints = constraintsToWire(v, &n.Constraints, n.absPath())
	}
	return xn
}

func constraintsToWire(v *Virtualizer, c *Constraints, base []string) *xConstraints {
	xc := &xConstraints{Restorability: c.Restorability}
	for _, a := range c.Affinity {
		xa := &xRefConstraint{ID: a.ID, Operation: a.Operation}
		if a.Object != nil {
			xa.Object = str(renderRef(v.relative, base, a.Object.absPath()))
		}
		xc.Affinity = append(xc.Affinity, xa)
	}
	for _, a := range c.Antiaffinity {
		xa := &xRefConstraint{ID: a.ID, Operation: a.Operation}
		if a.Object != nil {
			xa.Object = str(renderRef(v.relative, base, a.Object.absPath()))
		}
		xc.Antiaffinity = append(xc.Antiaffinity, xa)
	}
	for _, vr := range c.Variables {
		xv := &xRefConstraint{ID: vr.ID, Operation: vr.Operation}
		if vr.Object != nil {
			xv.Object = str(renderRef(v.relative, base, vr.Object.absPath()))
		}
		xc.Variable = append(xc.Variable, xv)
	}
	for _, cc := range c.Constraint {
		xc.Constraint = append(xc.Constraint, &xConstraint{
			ID: cc.ID, Formula: cc.Formula, Operation: cc.Operation,
		})
	}
	return xc
}

func (v *Virtualizer) linkToWire(l *Link) *xLink {
	xl := &xLink{
		ID:        l.ID,
		Name:      l.Name,
		Resources: linkResToWire(l.Resources),
		Operation: l.Operation,
	}
	base := l.absPath()
	if l.Src != nil {
		xl.Src = str(renderRef(v.relative, base, l.Src.absPath()))
	}
	if l.Dst != nil {
		xl.Dst = str(renderRef(v.relative, base, l.Dst.absPath()))
	}
	return xl
}

func portToWire(p *Port) *xPort {
	xp := &xPort{
		ID:         p.ID,
		Name:       p.Name,
		PortType:   p.PortType,
		Capability: p.Capability,
		SAP:        p.SAP,
		Operation:  p.Operation,
	}
	if p.SAPData != nil {
		xp.SAPData = &xSAPData{
			Technology: p.SAPData.Technology,
			Role:       p.SAPData.Role,
			Resources:  linkResToWire(p.SAPData.Resources),
		}
	}
	if p.Control != nil {
		xp.Control = &xControl{
			Controller:   p.Control.Controller,
			Orchestrator: p.Control.Orchestrator,
		}
	}
	if p.Addresses != nil {
		xa := &xAddresses{L2: p.Addresses.L2, L4: p.Addresses.L4}
		for _, l3 := range p.Addresses.L3 {
			xa.L3 = append(xa.L3, &xL3Addr{
				ID:        l3.ID,
				Name:      l3.Name,
				Configure: l3.Configure,
				Client:    l3.Client,
				Requested: l3.Requested,
				Provided:  l3.Provided,
			})
		}
		xp.Addresses = xa
	}
	for _, m := range p.Metadata {
		xp.Metadata = append(xp.Metadata, xMetadata{
			Key: m.Key, Value: m.Value, Operation: m.Operation,
		})
	}
	return xp
}

func linkResToWire(r *LinkResource) *xLinkRes {
	if r == nil {
		return nil
	}
	return &xLinkRes{
		Delay:     r.Delay,
		Bandwidth: r.Bandwidth,
		Cost:      r.Cost,
		QoS:       r.QoS,
	}
}
