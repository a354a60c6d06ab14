package convert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/metrics"
	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

// strp returns a leaf pointer for a non-empty string.
func strp(s string) *string { return &s }

// optLeaf renders a resource value as an optional tree leaf.
func optLeaf(v nffg.Value) *string {
	if !v.IsSet() {
		return nil
	}
	return strp(v.String())
}

// sortedKeys returns map keys in deterministic order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DumpXML converts a graph topology into tree-model XML.
func (c *Converter) DumpXML(g *nffg.NFFG) ([]byte, error) {
	return c.DumpVirtualizer(g).Bytes()
}

// DumpVirtualizer converts a graph topology into a full tree document.
// Synthesized elements of the other direction (dynamic attachment ports,
// external ports and SAPs, SAP nodes) are folded back into their tree forms.
// The returned document is bound with relative leafref paths.
func (c *Converter) DumpVirtualizer(g *nffg.NFFG) *virtualizer.Virtualizer {
	start := time.Now()
	c.log.Debug("Start graph to tree conversion", logging.String("id", g.ID))
	v := virtualizer.New(g.ID, g.Name)
	for _, key := range sortedKeys(g.Metadata) {
		v.SetMetadata(key, g.Metadata[key])
	}
	c.dumpInfras(g, v)
	c.dumpSAPs(g, v)
	c.dumpEdges(g, v)
	c.dumpNFs(g, v)
	c.dumpFlowrules(g, v)
	c.dumpRequirements(g, v)
	c.dumpConstraints(g, v)
	v.Bind(true)
	c.metrics.RecordConversion(metrics.DirectionDump, "ok", time.Since(start))
	c.log.Debug("Finished graph to tree conversion", logging.String("result", v.String()))
	return v
}

func (c *Converter) dumpInfras(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, infra := range g.Infras {
		vnID := c.names.RecreateBBID(infra.ID)
		if v.Node(vnID) != nil {
			c.log.Warn("Tree node already exists in the document",
				logging.Node(vnID))
			continue
		}
		n := virtualizer.NewNode(vnID)
		if infra.Name != "" {
			n.Name = strp(infra.Name)
		}
		if infra.InfraType != "" {
			n.Type = strp(infra.InfraType)
		}
		r := infra.Resources
		if r.CPU.IsSet() || r.Mem.IsSet() || r.Storage.IsSet() ||
			r.Cost.IsSet() || r.Zone.IsSet() {
			n.Resources = &virtualizer.SoftwareResource{
				CPU:     optLeaf(r.CPU),
				Mem:     optLeaf(r.Mem),
				Storage: optLeaf(r.Storage),
				Cost:    optLeaf(r.Cost),
				Zone:    optLeaf(r.Zone),
			}
		}
		for _, key := range sortedKeys(infra.Metadata) {
			n.SetMetadata(key, infra.Metadata[key])
		}
		// Node-level delay and bandwidth have no tree slot; they ride in
		// metadata.
		if r.Delay.IsSet() {
			n.SetMetadata("delay", r.Delay.String())
		}
		if r.Bandwidth.IsSet() {
			n.SetMetadata("bandwidth", r.Bandwidth.String())
		}

		for _, port := range infra.Ports {
			if nffg.IsDynamicPortID(port.ID) {
				continue
			}
			if nffg.IsExternalPortID(port.ID) {
				c.log.Debug("Skipping external port", logging.Port(port.ID))
				continue
			}
			// port-sap typing happens while folding the SAP nodes back.
			vp := virtualizer.NewPort(port.ID, virtualizer.PortTypeAbstract)
			if port.SAP != "" {
				vp.SAP = strp(port.SAP)
			} else if s := port.Property("sap"); s != "" {
				vp.SAP = strp(s)
			}
			c.dumpPortAttrs(port, vp)
			n.AddPort(vp)
		}
		for _, sup := range infra.Supported {
			n.AddSupportedNF(sup)
		}
		v.AddNode(n)
		c.log.Debug("Converted infra node", logging.Node(vnID))
		c.metrics.RecordElement(metrics.DirectionDump, "infra")

		if infra.DelayMatrix == nil {
			continue
		}
		for _, e := range infra.DelayMatrix.Entries() {
			sp := n.Port(e.Src)
			dp := n.Port(e.Dst)
			if sp == nil || dp == nil {
				continue
			}
			n.AddLink(&virtualizer.Link{
				ID:  fmt.Sprintf("link-%s-%s", e.Src, e.Dst),
				Src: sp,
				Dst: dp,
				Resources: &virtualizer.LinkResource{
					Delay: strp(strconv.FormatFloat(e.Delay, 'g', -1, 64)),
				},
			})
			c.log.Debug("Added intra-node resource link",
				logging.Node(vnID), logging.Float64("delay", e.Delay))
		}
	}
}

// dumpPortAttrs copies a graph port's attributes onto a tree port.
func (c *Converter) dumpPortAttrs(port *nffg.Port, vp *virtualizer.Port) {
	if port.Name != "" {
		vp.Name = strp(port.Name)
	}
	if port.Capability != "" {
		vp.Capability = strp(port.Capability)
	}
	if port.Technology != "" || port.Role != "" || port.Delay.IsSet() ||
		port.Bandwidth.IsSet() || port.Cost.IsSet() || port.QoS.IsSet() {
		sd := &virtualizer.SAPData{}
		if port.Technology != "" {
			sd.Technology = strp(port.Technology)
		}
		if port.Role != "" {
			sd.Role = strp(port.Role)
		}
		if port.Delay.IsSet() || port.Bandwidth.IsSet() ||
			port.Cost.IsSet() || port.QoS.IsSet() {
			sd.Resources = &virtualizer.LinkResource{
				Delay:     optLeaf(port.Delay),
				Bandwidth: optLeaf(port.Bandwidth),
				Cost:      optLeaf(port.Cost),
				QoS:       optLeaf(port.QoS),
			}
		}
		vp.SAPData = sd
	}
	if port.Controller != "" || port.Orchestrator != "" {
		ctrl := &virtualizer.Control{}
		if port.Controller != "" {
			ctrl.Controller = strp(port.Controller)
		}
		if port.Orchestrator != "" {
			ctrl.Orchestrator = strp(port.Orchestrator)
		}
		vp.Control = ctrl
	}
	if port.L2 != "" || port.L4 != "" || len(port.L3) > 0 {
		addr := &virtualizer.Addresses{}
		if port.L2 != "" {
			addr.L2 = strp(port.L2)
		}
		if port.L4 != "" {
			addr.L4 = strp(port.L4)
		}
		for _, l3 := range port.L3 {
			entry := &virtualizer.L3Address{ID: l3.ID}
			if l3.Name != "" {
				entry.Name = strp(l3.Name)
			}
			if l3.Configure {
				entry.Configure = strp("true")
			}
			if l3.Client != "" {
				entry.Client = strp(l3.Client)
			}
			if l3.Requested != "" {
				entry.Requested = strp(l3.Requested)
			}
			if l3.Provided != "" {
				entry.Provided = strp(l3.Provided)
			}
			addr.L3 = append(addr.L3, entry)
		}
		vp.Addresses = addr
	}
	for _, key := range sortedKeys(port.Metadata) {
		vp.SetMetadata(key, port.Metadata[key])
	}
}

// dumpSAPs rewrites the infra-side port of every SAP attachment to the SAP
// port type, restoring the inter-domain sap value or the name-encoded SAP id.
func (c *Converter) dumpSAPs(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, sap := range g.SAPs {
		if nffg.IsExternalPortID(sap.ID) {
			c.log.Debug("Skipping external SAP", logging.Node(sap.ID))
			continue
		}
		for _, l := range g.OutLinks(sap.ID) {
			if l.Type != nffg.LinkStatic {
				continue
			}
			sapPort := l.Src
			infraID := c.names.RecreateBBID(l.Dst.Node().ID)
			vnode := v.Node(infraID)
			if vnode == nil {
				continue
			}
			vport := vnode.Port(l.Dst.ID)
			if vport == nil {
				continue
			}
			if sapPort.Role == nffg.RoleExternal {
				c.log.Debug("Removing external SAP port", logging.Port(vport.ID))
				vnode.RemovePort(vport.ID)
				continue
			}
			vport.PortType = virtualizer.PortTypeSAP
			switch {
			case sapPort.SAP != "":
				vport.SAP = strp(sapPort.SAP)
			case sapPort.Property("type") == "inter-domain":
				if s := sapPort.Property("sap"); s != "" {
					vport.SAP = strp(s)
				} else {
					vport.SAP = strp(sap.ID)
				}
			case sap.Binding != "":
				vport.SAP = strp(sap.ID)
				c.log.Debug("Set port as an inter-domain SAP",
					logging.Port(vport.ID), logging.Node(sap.ID))
			default:
				vport.Name = strp(fmt.Sprintf("%s:%s", c.cfg.SAPPrefix, sap.ID))
			}
			c.dumpPortAttrs(sapPort, vport)
			c.log.Debug("Converted SAP to port",
				logging.Node(sap.ID), logging.Port(vport.ID))
			c.metrics.RecordElement(metrics.DirectionDump, "sap")
		}
	}
}

// dumpEdges recreates the inter-node links. Both halves of an undirected
// pair are emitted; the other direction re-pairs them by their reversed
// endpoints. SAP attachments are skipped, they live in the port typing.
func (c *Converter) dumpEdges(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, l := range g.Links {
		if l.Type != nffg.LinkStatic {
			continue
		}
		if l.Src.Node().Type == nffg.TypeSAP || l.Dst.Node().Type == nffg.TypeSAP {
			continue
		}
		srcNode := v.Node(c.names.RecreateBBID(l.Src.Node().ID))
		dstNode := v.Node(c.names.RecreateBBID(l.Dst.Node().ID))
		if srcNode == nil || dstNode == nil {
			c.log.Warn("Link endpoint node is missing from the document",
				logging.String("link", l.ID))
			continue
		}
		srcPort := srcNode.Port(l.Src.ID)
		dstPort := dstNode.Port(l.Dst.ID)
		if srcPort == nil || dstPort == nil {
			c.log.Warn("Link endpoint port is missing from the document",
				logging.String("link", l.ID))
			continue
		}
		vl := &virtualizer.Link{ID: l.ID, Src: srcPort, Dst: dstPort}
		if l.Delay.IsSet() || l.Bandwidth.IsSet() || l.Cost.IsSet() || l.QoS.IsSet() {
			vl.Resources = &virtualizer.LinkResource{
				Delay:     optLeaf(l.Delay),
				Bandwidth: optLeaf(l.Bandwidth),
				Cost:      optLeaf(l.Cost),
				QoS:       optLeaf(l.QoS),
			}
		}
		v.AddLink(vl)
		c.log.Debug("Added link", logging.String("link", l.ID))
		c.metrics.RecordElement(metrics.DirectionDump, "link")
	}
}

// assembleNF builds the tree form of an NF node without its ports.
func (c *Converter) assembleNF(nf *nffg.NF) *virtualizer.Node {
	vnf := virtualizer.NewNode(c.names.RecreateNFID(nf.ID))
	if nf.Name != "" {
		vnf.Name = strp(nf.Name)
	}
	if nf.FuncType != "" {
		vnf.Type = strp(nf.FuncType)
	}
	if nf.Status != "" {
		vnf.Status = strp(nf.Status)
	}
	r := nf.Resources
	if r.CPU.IsSet() || r.Mem.IsSet() || r.Storage.IsSet() ||
		r.Cost.IsSet() || r.Zone.IsSet() {
		vnf.Resources = &virtualizer.SoftwareResource{
			CPU:     optLeaf(r.CPU),
			Mem:     optLeaf(r.Mem),
			Storage: optLeaf(r.Storage),
			Cost:    optLeaf(r.Cost),
			Zone:    optLeaf(r.Zone),
		}
	}
	// Attributes without a tree slot ride in metadata.
	if nf.DeploymentType != "" {
		vnf.SetMetadata("deployment_type", nf.DeploymentType)
	}
	if r.Delay.IsSet() {
		vnf.SetMetadata("delay", r.Delay.String())
	}
	if r.Bandwidth.IsSet() {
		vnf.SetMetadata("bandwidth", r.Bandwidth.String())
	}
	for _, key := range sortedKeys(nf.Metadata) {
		if key == "deployment_type" || key == "delay" || key == "bandwidth" {
			continue
		}
		vnf.SetMetadata(key, nf.Metadata[key])
	}
	return vnf
}

// assembleNFPort builds the tree form of an NF port.
func (c *Converter) assembleNFPort(port *nffg.Port) *virtualizer.Port {
	vp := virtualizer.NewPort(port.ID, virtualizer.PortTypeAbstract)
	if s := port.Property("sap"); s != "" {
		vp.SAP = strp(s)
		vp.PortType = virtualizer.PortTypeSAP
	} else if port.SAP != "" {
		vp.SAP = strp(port.SAP)
		vp.PortType = virtualizer.PortTypeSAP
	}
	c.dumpPortAttrs(port, vp)
	return vp
}

func (c *Converter) dumpNFs(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, infra := range g.Infras {
		vnode := v.Node(c.names.RecreateBBID(infra.ID))
		if vnode == nil {
			c.log.Warn("Infra node is missing from the document",
				logging.Node(infra.ID))
			continue
		}
		for _, nf := range g.RunningNFs(infra.ID) {
			vnfID := c.names.RecreateNFID(nf.ID)
			if vnode.NFInstance(vnfID) != nil {
				c.log.Debug("NF already exists in the document", logging.Node(vnfID))
				continue
			}
			vnf := c.assembleNF(nf)
			vnode.AddNFInstance(vnf)
			for _, port := range nf.Ports {
				vnf.AddPort(c.assembleNFPort(port))
			}
			c.log.Debug("Added NF instance",
				logging.Node(vnfID), logging.Node(vnode.ID))
			c.metrics.RecordElement(metrics.DirectionDump, "nf")
		}
	}
}

// resolveFlowPort maps a flow rule port id back to its tree port: a physical
// port of the node, an external reference carried verbatim, or the NF port
// behind a dynamic attachment port.
func (c *Converter) resolveFlowPort(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node, portID string) (*virtualizer.Port, string, bool) {
	if p := vnode.Port(portID); p != nil {
		return p, "", true
	}
	// External attachment: the opposite SAP port carries the original path.
	for _, l := range g.OutLinks(infra.ID) {
		if l.Src.ID != portID || l.Dst.Node().Type != nffg.TypeSAP {
			continue
		}
		if l.Dst.Role == nffg.RoleExternal {
			return nil, l.Dst.Property("path"), true
		}
	}
	nfPort := g.NFPortOfDynamicPort(infra.ID, portID)
	if nfPort == nil {
		c.log.Warn("NF port is not found for dynamic port",
			logging.Port(portID))
		return nil, "", false
	}
	vnf := vnode.NFInstance(c.names.RecreateNFID(nfPort.Node().ID))
	if vnf == nil {
		c.log.Warn("NF instance is missing from the document",
			logging.Node(nfPort.Node().ID))
		return nil, "", false
	}
	p := vnf.Port(nfPort.ID)
	if p == nil {
		c.log.Warn("NF port is missing from the document",
			logging.Node(vnf.ID), logging.Port(nfPort.ID))
		return nil, "", false
	}
	return p, "", true
}

func (c *Converter) dumpFlowrules(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, infra := range g.Infras {
		vnode := v.Node(c.names.RecreateBBID(infra.ID))
		if vnode == nil {
			c.log.Warn("Infra node is missing from the document",
				logging.Node(infra.ID))
			continue
		}
		for _, fr := range infra.FlowRules() {
			c.dumpFlowrule(g, infra, vnode, fr)
		}
	}
}

func (c *Converter) dumpFlowrule(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node, fr *nffg.FlowRule) {
	m := c.codec.DecodeMatch(fr.Match)
	if m.InPort == "" {
		c.log.Warn("Missing in_port from flow rule match, skipping",
			logging.Rule(fr.ID))
		c.metrics.RecordSkipped(metrics.DirectionDump, "missing_in_port")
		return
	}
	a := c.codec.DecodeAction(fr.Action)
	if a.Output == "" {
		c.log.Warn("Missing output from flow rule action, skipping",
			logging.Rule(fr.ID))
		c.metrics.RecordSkipped(metrics.DirectionDump, "missing_output")
		return
	}
	inPort, inExternal, ok := c.resolveFlowPort(g, infra, vnode, m.InPort)
	if !ok {
		c.metrics.RecordSkipped(metrics.DirectionDump, "unresolved_port")
		return
	}
	outPort, outExternal, ok := c.resolveFlowPort(g, infra, vnode, a.Output)
	if !ok {
		c.metrics.RecordSkipped(metrics.DirectionDump, "unresolved_port")
		return
	}

	fe := &virtualizer.Flowentry{
		ID:           strconv.Itoa(fr.ID),
		Port:         inPort,
		PortExternal: inExternal,
		Out:          outPort,
		OutExternal:  outExternal,
	}
	if match := c.codec.EncodeVirtMatch(m); match != "" {
		fe.Match = strp(match)
	}
	if action := c.codec.EncodeVirtAction(a); action != "" {
		fe.Action = strp(action)
	}
	if fr.Delay.IsSet() || fr.Bandwidth.IsSet() || fr.Cost.IsSet() || fr.QoS.IsSet() {
		fe.Resources = &virtualizer.LinkResource{
			Delay:     optLeaf(fr.Delay),
			Bandwidth: optLeaf(fr.Bandwidth),
			Cost:      optLeaf(fr.Cost),
			QoS:       optLeaf(fr.QoS),
		}
	}
	vnode.AddFlowentry(fe)
	c.log.Debug("Added flow entry", logging.Rule(fr.ID), logging.Node(vnode.ID))
	c.metrics.RecordElement(metrics.DirectionDump, "flowentry")
}

// dumpRequirements encodes each end-to-end requirement as node-level
// constraint formulas over per-flow-entry variables. The variables take over
// the delay and bandwidth resource slots of the entries on the path.
func (c *Converter) dumpRequirements(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, req := range g.Reqs {
		if req.Src.Node().ID != req.Dst.Node().ID {
			c.log.Warn("Requirement endpoints are not on the same node, skipping",
				logging.String("req", req.ID))
			c.metrics.RecordSkipped(metrics.DirectionDump, "split_requirement")
			continue
		}
		vnode := v.Node(c.names.RecreateBBID(req.Src.Node().ID))
		if vnode == nil {
			c.log.Warn("Requirement node is missing from the document",
				logging.String("req", req.ID))
			continue
		}
		if req.Delay != nil {
			if formula := c.requirementFormula(vnode, req, "delay"); formula != "" {
				vnode.Constraints.AddConstraint("delay-"+req.ID, formula)
				c.log.Debug("Generated delay formula",
					logging.String("formula", formula))
			}
		}
		if req.Bandwidth != nil {
			if formula := c.requirementFormula(vnode, req, "bandwidth"); formula != "" {
				vnode.Constraints.AddConstraint("bandwidth-"+req.ID, formula)
				c.log.Debug("Generated bandwidth formula",
					logging.String("formula", formula))
			}
		}
		c.metrics.RecordElement(metrics.DirectionDump, "requirement")
	}
}

// requirementFormula installs per-hop variables on the flow entries of the
// requirement path and renders the summing formula. An entry whose slot
// already holds a variable keeps it.
func (c *Converter) requirementFormula(vnode *virtualizer.Node, req *nffg.Requirement, kind string) string {
	var vars []string
	for _, hop := range req.SGPath {
		fe := vnode.Flowentry(strconv.Itoa(hop))
		if fe == nil {
			c.log.Warn("Flow entry was not found for requirement hop",
				logging.Rule(hop), logging.String("req", req.ID))
			continue
		}
		if fe.Resources == nil {
			fe.Resources = &virtualizer.LinkResource{}
		}
		var slot **string
		var variable string
		if kind == "delay" {
			slot = &fe.Resources.Delay
			variable = delayVar(fe.ID)
		} else {
			slot = &fe.Resources.Bandwidth
			variable = bandwidthVar(fe.ID)
		}
		if cur := *slot; cur != nil && strings.HasPrefix(*cur, "$") {
			vars = append(vars, *cur)
			continue
		}
		*slot = strp(variable)
		vars = append(vars, variable)
	}
	if len(vars) == 0 {
		return ""
	}
	var value float64
	tail := "|max|"
	if kind == "delay" {
		value = *req.Delay
	} else {
		value = *req.Bandwidth
		tail = "||"
	}
	return strings.Join(vars, "+") + tail + strconv.FormatFloat(value, 'g', -1, 64)
}

// resolveConstraintTarget maps a graph node id back to its tree node: a
// top-level node or an NF instance.
func (c *Converter) resolveConstraintTarget(v *virtualizer.Virtualizer, id string) *virtualizer.Node {
	bbID := c.names.RecreateBBID(id)
	nfID := c.names.RecreateNFID(id)
	for _, vnode := range v.Nodes {
		if vnode.ID == bbID {
			return vnode
		}
		if vnf := vnode.NFInstance(nfID); vnf != nil {
			return vnf
		}
	}
	return nil
}

// dumpRefConstraints translates graph-model placement constraints into the
// tree vocabulary, resolving each referenced graph id to a tree node handle.
func (c *Converter) dumpRefConstraints(v *virtualizer.Virtualizer, dst *virtualizer.Constraints, src *nffg.Constraints, owner string) {
	for _, id := range sortedKeys(src.Affinity) {
		target := c.resolveConstraintTarget(v, src.Affinity[id])
		if target == nil {
			c.log.Warn("Referenced node is not found for affinity",
				logging.Node(src.Affinity[id]), logging.Node(owner))
			continue
		}
		dst.Affinity = append(dst.Affinity,
			&virtualizer.ConstraintAffinity{ID: id, Object: target})
	}
	for _, id := range sortedKeys(src.Antiaffinity) {
		target := c.resolveConstraintTarget(v, src.Antiaffinity[id])
		if target == nil {
			c.log.Warn("Referenced node is not found for anti-affinity",
				logging.Node(src.Antiaffinity[id]), logging.Node(owner))
			continue
		}
		dst.Antiaffinity = append(dst.Antiaffinity,
			&virtualizer.ConstraintAntiaffinity{ID: id, Object: target})
	}
	for _, key := range sortedKeys(src.Variables) {
		target := c.resolveConstraintTarget(v, src.Variables[key])
		if target == nil {
			c.log.Warn("Referenced node is not found for variable",
				logging.Node(src.Variables[key]), logging.Node(owner))
			continue
		}
		dst.Variables = append(dst.Variables,
			&virtualizer.ConstraintVariable{ID: key, Object: target})
	}
	for _, id := range src.FormulaIDs() {
		dst.AddConstraint(id, src.Formulas[id])
	}
	if src.Restorability != "" {
		dst.Restorability = strp(src.Restorability)
	}
}

func (c *Converter) dumpConstraints(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	for _, infra := range g.Infras {
		vnode := v.Node(c.names.RecreateBBID(infra.ID))
		if vnode == nil {
			continue
		}
		c.dumpRefConstraints(v, &vnode.Constraints, &infra.Constraints, infra.ID)
		for _, nf := range g.RunningNFs(infra.ID) {
			vnf := vnode.NFInstance(c.names.RecreateNFID(nf.ID))
			if vnf == nil {
				continue
			}
			c.dumpRefConstraints(v, &vnf.Constraints, &nf.Constraints, nf.ID)
		}
		for _, fr := range infra.FlowRules() {
			if fr.Constraints.Empty() {
				continue
			}
			fe := vnode.Flowentry(strconv.Itoa(fr.ID))
			if fe == nil {
				continue
			}
			c.dumpRefConstraints(v, &fe.Constraints, &fr.Constraints, infra.ID)
		}
	}
}

// ClearInstalled removes every NF instance and flow entry from the document,
// typically before re-installing a mapping.
func ClearInstalled(v *virtualizer.Virtualizer) *virtualizer.Virtualizer {
	for _, vnode := range v.Nodes {
		vnode.NFInstances = nil
		vnode.Flowtable = nil
	}
	return v
}

// AdaptMapping installs the NFs, flow rules, requirements and constraints of
// a mapped topology into a copy of the given document. With reinstall set,
// previously installed elements are removed first.
func (c *Converter) AdaptMapping(v *virtualizer.Virtualizer, g *nffg.NFFG, reinstall bool) *virtualizer.Virtualizer {
	out := v.Clone()
	if reinstall {
		c.log.Debug("Removing pre-installed NFs and flow entries")
		ClearInstalled(out)
	}
	c.log.Debug("Adapting mapped topology into the document",
		logging.String("id", out.ID))
	c.dumpNFs(g, out)
	c.dumpFlowrules(g, out)
	c.dumpRequirements(g, out)
	c.dumpConstraints(g, out)
	out.Bind(true)
	return out
}
