package convert

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nfvio/topoconv/pkg/flowops"
	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/metrics"
	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/virtualizer"
)

// leaf dereferences an optional tree leaf.
func leaf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// rawValue wraps an optional leaf as an unparsed resource value.
func rawValue(p *string) nffg.Value {
	if p == nil || *p == "" {
		return nffg.Value{}
	}
	return nffg.Raw(*p)
}

// numericValue parses an optional leaf as a number, warning when the value
// degrades to a raw string.
func (c *Converter) numericValue(field string, p *string) nffg.Value {
	if p == nil || *p == "" {
		return nffg.Value{}
	}
	v := nffg.ParseValue(*p)
	if _, ok := v.Number(); !ok {
		c.log.Warn("Resource value is not a valid number",
			logging.String("field", field), logging.String("value", *p))
	}
	return v
}

// ParseXML converts a tree-model XML document into a graph topology.
func (c *Converter) ParseXML(data []byte) (*nffg.NFFG, error) {
	v, err := virtualizer.Parse(data, c.log)
	if err != nil {
		return nil, err
	}
	return c.ParseVirtualizer(v)
}

// ParseVirtualizer converts a tree-model document into a graph topology.
// Every tree node becomes an infrastructure node; SAP-typed ports are
// expanded into SAP nodes, NF instances become NF nodes attached by dynamic
// links and flow entries become flow rules on the in-port.
func (c *Converter) ParseVirtualizer(v *virtualizer.Virtualizer) (*nffg.NFFG, error) {
	start := time.Now()
	c.log.Debug("Start tree to graph conversion", logging.String("id", v.ID))
	g := nffg.New(v.ID, leaf(v.Name))
	for _, vnode := range v.Nodes {
		if err := c.parseNode(g, vnode); err != nil {
			c.metrics.RecordConversion(metrics.DirectionParse, "error", time.Since(start))
			return nil, err
		}
	}
	c.parseLinks(g, v)
	for _, md := range v.Metadata {
		g.AddMetadata(md.Key, md.Value)
	}
	c.parseRequirementFormulas(g)
	if c.cfg.ParseSGHops {
		c.reconstructSGHops(g)
	} else {
		c.log.Debug("Skip service hop reconstruction")
	}
	c.metrics.RecordConversion(metrics.DirectionParse, "ok", time.Since(start))
	c.log.Debug("Finished tree to graph conversion", logging.String("result", g.String()))
	return g, nil
}

func (c *Converter) parseNode(g *nffg.NFFG, vnode *virtualizer.Node) error {
	bbID := c.names.UniqueBBID(vnode.ID)
	infra, err := g.AddInfra(bbID)
	if err != nil {
		return fmt.Errorf("add infra %q: %w", bbID, err)
	}
	infra.Name = leaf(vnode.Name)
	infra.Domain = c.cfg.Domain
	infra.InfraType = leaf(vnode.Type)
	if r := vnode.Resources; r != nil {
		infra.Resources.CPU = c.numericValue("cpu", r.CPU)
		infra.Resources.Mem = c.numericValue("mem", r.Mem)
		infra.Resources.Storage = c.numericValue("storage", r.Storage)
		infra.Resources.Cost = rawValue(r.Cost)
		infra.Resources.Zone = rawValue(r.Zone)
	}
	infra.Resources.Bandwidth = c.inferNodeResource(vnode, "bandwidth")
	infra.Resources.Delay = c.inferNodeResource(vnode, "delay")

	// Intra-node links with a delay value populate the delay matrix.
	for _, vl := range vnode.Links {
		if vl.Resources == nil || vl.Resources.Delay == nil {
			continue
		}
		if vl.Src == nil || vl.Dst == nil {
			c.log.Warn("Skipping intra-node link with unresolved endpoint",
				logging.String("link", vl.ID))
			continue
		}
		d, err := strconv.ParseFloat(*vl.Resources.Delay, 64)
		if err != nil {
			c.log.Warn("Intra-node link delay is not a valid number",
				logging.String("link", vl.ID), logging.Err(err))
			continue
		}
		infra.DelayMatrix.Add(vl.Src.ID, vl.Dst.ID, d)
	}

	for _, sup := range vnode.SupportedNFs {
		if t := leaf(sup.Type); t != "" {
			infra.AddSupportedType(t)
		}
	}
	c.log.Debug("Created infra node", logging.Node(infra.ID))
	c.metrics.RecordElement(metrics.DirectionParse, "infra")

	c.parsePorts(g, infra, vnode)
	c.parseNFs(g, infra, vnode)
	c.parseFlowentries(g, infra, vnode)
	c.parseInfraConstraints(infra, vnode)
	c.parseInfraMetadata(g, infra, vnode)
	return nil
}

// inferNodeResource reads a node-level bandwidth or delay value from the
// metadata keys of the same name, falling back to an aggregate over the
// intra-node links: the minimum for bandwidth, the maximum for delay.
func (c *Converter) inferNodeResource(vnode *virtualizer.Node, kind string) nffg.Value {
	if raw, ok := vnode.MetadataValue(kind); ok {
		return c.numericValue(kind, &raw)
	}
	var agg *float64
	for _, vl := range vnode.Links {
		if vl.Resources == nil {
			continue
		}
		var p *string
		if kind == "bandwidth" {
			p = vl.Resources.Bandwidth
		} else {
			p = vl.Resources.Delay
		}
		if p == nil {
			continue
		}
		f, err := strconv.ParseFloat(*p, 64)
		if err != nil {
			c.log.Warn("Link resource value is not a valid number",
				logging.String("field", kind), logging.Err(err))
			continue
		}
		switch {
		case agg == nil:
			agg = &f
		case kind == "bandwidth" && f < *agg:
			agg = &f
		case kind == "delay" && f > *agg:
			agg = &f
		}
	}
	if agg == nil {
		return nffg.Value{}
	}
	return nffg.Number(*agg)
}

func (c *Converter) parsePorts(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node) {
	for _, vport := range vnode.Ports {
		switch vport.PortType {
		case virtualizer.PortTypeSAP:
			c.parseSAPPort(g, infra, vport)
		case virtualizer.PortTypeAbstract:
			p := infra.AddPort(vport.ID)
			c.copyPortAttrs(vport, p)
			c.log.Debug("Added static infra port", logging.Port(p.ID))
		default:
			c.log.Warn("Port type is not defined",
				logging.Node(vnode.ID), logging.Port(vport.ID))
			c.metrics.RecordSkipped(metrics.DirectionParse, "unknown_port_type")
		}
	}
}

// sapID classifies a SAP-typed port into a SAP node id: the inter-domain sap
// value first, then a prefixed port id, then a prefixed port name with or
// without the "<prefix>:" form, and finally the raw port id.
func (c *Converter) sapID(vport *virtualizer.Port) string {
	prefix := c.cfg.SAPPrefix
	if s := leaf(vport.SAP); s != "" {
		c.log.Debug("Detected SAP id from sap field", logging.String("sap", s))
		return s
	}
	if strings.HasPrefix(vport.ID, prefix) {
		return vport.ID
	}
	name := leaf(vport.Name)
	upper := strings.ToUpper(name)
	if name != "" && strings.HasPrefix(upper, prefix+":") {
		return name[len(prefix)+1:]
	}
	if name != "" && strings.HasPrefix(upper, prefix) {
		return name
	}
	c.log.Debug("No explicit SAP id was detected, using port id",
		logging.Port(vport.ID))
	return vport.ID
}

func (c *Converter) parseSAPPort(g *nffg.NFFG, infra *nffg.InfraNode, vport *virtualizer.Port) {
	sapID := c.sapID(vport)
	sapName := sapID
	if name := leaf(vport.Name); name != "" {
		sapName = strings.TrimPrefix(name, c.cfg.SAPPrefix+":")
	}
	sap := g.SAPByID(sapID)
	if sap == nil {
		var err error
		sap, err = g.AddSAP(sapID, sapName)
		if err != nil {
			c.log.Warn("SAP id collides with an existing node, skipping port",
				logging.Node(sapID), logging.Err(err))
			c.metrics.RecordSkipped(metrics.DirectionParse, "sap_id_collision")
			return
		}
		c.log.Debug("Created SAP node", logging.Node(sapID))
		c.metrics.RecordElement(metrics.DirectionParse, "sap")
	}

	// The SAP port reuses the tree port id; the original SAP port id was
	// lost in the other direction.
	sapPort := sap.AddPort(vport.ID)
	infraPort := infra.AddPort(vport.ID)
	if s := leaf(vport.SAP); s != "" {
		sapPort.AddProperty("type", "inter-domain")
		sapPort.AddProperty("sap", s)
		sapPort.SAP = s
		infraPort.AddProperty("sap", s)
		infraPort.SAP = s
	}
	c.copyPortAttrs(vport, sapPort, infraPort)
	c.log.Debug("Added SAP port", logging.Node(sapID), logging.Port(sapPort.ID))

	linkID := fmt.Sprintf("%s-%s-link", sapID, infra.ID)
	_, _, err := g.AddUndirectedLink(sapPort, infraPort,
		nffg.WithLinkID(linkID),
		nffg.WithLinkResources(sapPort.Delay, sapPort.Bandwidth,
			sapPort.Cost, sapPort.QoS))
	if err != nil {
		c.log.Error("Cannot connect SAP to infra node", logging.Err(err))
		return
	}
	c.log.Debug("Added SAP-infra connection", logging.String("link", linkID))
	c.metrics.RecordElement(metrics.DirectionParse, "link")
}

// copyPortAttrs copies the shared port attributes of a tree port onto one or
// more graph ports.
func (c *Converter) copyPortAttrs(vport *virtualizer.Port, dsts ...*nffg.Port) {
	for _, dst := range dsts {
		if name := leaf(vport.Name); name != "" {
			dst.Name = name
		}
		if capability := leaf(vport.Capability); capability != "" {
			dst.Capability = capability
		}
		if sd := vport.SAPData; sd != nil {
			dst.Technology = leaf(sd.Technology)
			dst.Role = leaf(sd.Role)
			if r := sd.Resources; r != nil {
				dst.Delay = c.numericValue("delay", r.Delay)
				dst.Bandwidth = c.numericValue("bandwidth", r.Bandwidth)
				dst.Cost = c.numericValue("cost", r.Cost)
				dst.QoS = rawValue(r.QoS)
			}
		}
		if ctrl := vport.Control; ctrl != nil {
			dst.Controller = leaf(ctrl.Controller)
			dst.Orchestrator = leaf(ctrl.Orchestrator)
		}
		if addr := vport.Addresses; addr != nil {
			dst.L2 = leaf(addr.L2)
			dst.L4 = leaf(addr.L4)
			for _, l3 := range addr.L3 {
				dst.L3 = append(dst.L3, nffg.L3Address{
					ID:        l3.ID,
					Name:      leaf(l3.Name),
					Configure: strings.EqualFold(leaf(l3.Configure), "true"),
					Client:    leaf(l3.Client),
					Requested: leaf(l3.Requested),
					Provided:  leaf(l3.Provided),
				})
			}
		}
		for _, md := range vport.Metadata {
			dst.AddMetadata(md.Key, md.Value)
		}
	}
}

func (c *Converter) parseNFs(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node) {
	for _, vnf := range vnode.NFInstances {
		nfID := c.names.UniqueNFID(vnf.ID, infra.ID)
		nf, err := g.AddNF(nfID)
		if err != nil {
			c.log.Warn("NF id collides with an existing node, skipping",
				logging.Node(nfID), logging.Err(err))
			c.metrics.RecordSkipped(metrics.DirectionParse, "nf_id_collision")
			continue
		}
		nf.Name = leaf(vnf.Name)
		nf.FuncType = leaf(vnf.Type)
		nf.Status = leaf(vnf.Status)
		if dep, ok := vnf.MetadataValue("deployment_type"); ok {
			nf.DeploymentType = dep
		}
		if r := vnf.Resources; r != nil {
			nf.Resources.CPU = c.numericValue("cpu", r.CPU)
			nf.Resources.Mem = c.numericValue("mem", r.Mem)
			nf.Resources.Storage = c.numericValue("storage", r.Storage)
			nf.Resources.Cost = c.numericValue("cost", r.Cost)
		}
		if d, ok := vnf.MetadataValue("delay"); ok {
			nf.Resources.Delay = c.numericValue("delay", &d)
		}
		if bw, ok := vnf.MetadataValue("bandwidth"); ok {
			nf.Resources.Bandwidth = c.numericValue("bandwidth", &bw)
		}
		c.parseRefConstraints(&nf.Constraints, &vnf.Constraints, infra.ID, nfID)
		for _, md := range vnf.Metadata {
			if md.Key == "delay" || md.Key == "bandwidth" {
				continue
			}
			nf.AddMetadata(md.Key, md.Value)
		}
		c.log.Debug("Created NF node", logging.Node(nf.ID))
		c.metrics.RecordElement(metrics.DirectionParse, "nf")

		for _, vport := range vnf.Ports {
			nfPort := nf.AddPort(vport.ID)
			if s := leaf(vport.SAP); s != "" && vport.PortType != "" {
				nfPort.SAP = s
			}
			c.copyPortAttrs(vport, nfPort)
			c.log.Debug("Added NF port", logging.Node(nf.ID), logging.Port(nfPort.ID))

			// The infra side of the attachment is a synthesized port
			// carrying the (infra, nf, port) triple as its id.
			dynID := strings.Join([]string{infra.ID, nfID, vport.ID},
				flowops.LabelDelimiter)
			infraPort := infra.AddPort(dynID)
			if _, _, err := g.AddDynamicLink(nfPort, infraPort); err != nil {
				c.log.Error("Cannot attach NF port to infra node", logging.Err(err))
				continue
			}
			c.log.Debug("Added dynamic NF-infra connection", logging.Port(dynID))
		}
	}
}

// parseRefConstraints translates the placement constraints of a tree element
// into the graph vocabulary, resolving each referenced NF instance to its
// graph id.
func (c *Converter) parseRefConstraints(dst *nffg.Constraints, src *virtualizer.Constraints, bbID, ownerID string) {
	for _, aff := range src.Affinity {
		if aff.Object == nil {
			c.log.Warn("Skipping affinity with unresolved object",
				logging.String("constraint", aff.ID), logging.Node(ownerID))
			continue
		}
		dst.AddAffinity(aff.ID, c.names.UniqueNFID(aff.Object.ID, bbID))
	}
	for _, naff := range src.Antiaffinity {
		if naff.Object == nil {
			c.log.Warn("Skipping anti-affinity with unresolved object",
				logging.String("constraint", naff.ID), logging.Node(ownerID))
			continue
		}
		dst.AddAntiaffinity(naff.ID, c.names.UniqueNFID(naff.Object.ID, bbID))
	}
	for _, v := range src.Variables {
		if v.Object == nil {
			c.log.Warn("Skipping variable with unresolved object",
				logging.String("variable", v.ID), logging.Node(ownerID))
			continue
		}
		dst.AddVariable(v.ID, c.names.UniqueNFID(v.Object.ID, bbID))
	}
	for _, f := range src.Constraint {
		dst.AddFormula(f.ID, f.Formula)
	}
	if r := leaf(src.Restorability); r != "" {
		dst.Restorability = r
	}
}

func (c *Converter) parseInfraConstraints(infra *nffg.InfraNode, vnode *virtualizer.Node) {
	c.parseRefConstraints(&infra.Constraints, &vnode.Constraints, infra.ID, infra.ID)
}

func (c *Converter) parseFlowentries(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node) {
	for _, fe := range vnode.Flowtable {
		c.parseFlowentry(g, infra, fe)
	}
}

func (c *Converter) parseFlowentry(g *nffg.NFFG, infra *nffg.InfraNode, fe *virtualizer.Flowentry) {
	frID, err := strconv.Atoi(fe.ID)
	if err != nil {
		c.log.Error("Flow entry id is not a valid integer",
			logging.String("id", fe.ID))
		c.metrics.RecordSkipped(metrics.DirectionParse, "bad_flowentry_id")
		return
	}

	var (
		m        flowops.Match
		act      flowops.Action
		external bool
		inPort   *nffg.Port // port holding the resulting rule
	)

	// Resolve the in-port side.
	switch {
	case fe.PortExternal != "":
		external = true
		p, ok := c.ensureExternalPort(g, infra, fe.PortExternal)
		if !ok {
			c.metrics.RecordSkipped(metrics.DirectionParse, "bad_external_ref")
			return
		}
		m.InPort = p.ID
		inPort = p
	case fe.Port == nil:
		c.log.Error("In-port reference is missing from flow entry",
			logging.Rule(frID))
		c.metrics.RecordSkipped(metrics.DirectionParse, "missing_port")
		return
	default:
		owner := fe.Port.Owner()
		if owner != nil && owner.Owner() != nil {
			// NF port: the match carries the attachment triple and the
			// rule lands on the synthesized infra-side port.
			bbID := c.names.UniqueBBID(owner.Owner().ID)
			nfID := c.names.UniqueNFID(owner.ID, infra.ID)
			m.InPort = strings.Join([]string{bbID, nfID, fe.Port.ID},
				flowops.LabelDelimiter)
			inPort = g.DynamicPortOfNFPort(nfID, fe.Port.ID)
		} else {
			m.InPort = fe.Port.ID
			inPort = infra.Port(fe.Port.ID)
		}
		if inPort == nil {
			c.log.Error("In-port is missing from the graph",
				logging.Rule(frID), logging.Port(fe.Port.ID))
			c.metrics.RecordSkipped(metrics.DirectionParse, "missing_port")
			return
		}
	}

	// Resolve the out-port side.
	switch {
	case fe.OutExternal != "":
		external = true
		p, ok := c.ensureExternalPort(g, infra, fe.OutExternal)
		if !ok {
			c.metrics.RecordSkipped(metrics.DirectionParse, "bad_external_ref")
			return
		}
		act.Output = p.ID
	case fe.Out == nil:
		c.log.Error("Out-port reference is missing from flow entry",
			logging.Rule(frID))
		c.metrics.RecordSkipped(metrics.DirectionParse, "missing_port")
		return
	default:
		owner := fe.Out.Owner()
		if owner != nil && owner.Owner() != nil {
			bbID := c.names.UniqueBBID(owner.Owner().ID)
			nfID := c.names.UniqueNFID(owner.ID, infra.ID)
			act.Output = strings.Join([]string{bbID, nfID, fe.Out.ID},
				flowops.LabelDelimiter)
		} else {
			act.Output = fe.Out.ID
		}
	}

	// Translate the match and action mini-languages, rebuilding the tag
	// label context from the endpoints.
	vlan, flowclass := c.codec.DecodeVirtMatch(leaf(fe.Match))
	m.Flowclass = flowclass
	srcName := c.tagContextName(fe.Port, fe.PortExternal != "")
	dstName := c.tagContextName(fe.Out, fe.OutExternal != "")
	if vlan != nil {
		m.Tag = &flowops.TagLabel{Src: srcName, Dst: dstName, VLAN: *vlan}
	}
	push, pop, extra := c.codec.DecodeVirtAction(leaf(fe.Action))
	if push != nil {
		act.Push = &flowops.TagLabel{Src: srcName, Dst: dstName, VLAN: *push}
	}
	act.Pop = pop
	act.Extra = extra

	fr := &nffg.FlowRule{
		ID:       frID,
		Match:    c.codec.EncodeMatch(m),
		Action:   c.codec.EncodeAction(act),
		External: external,
	}
	if r := fe.Resources; r != nil {
		fr.Delay = c.numericValue("delay", r.Delay)
		fr.Bandwidth = c.numericValue("bandwidth", r.Bandwidth)
		fr.Cost = rawValue(r.Cost)
		fr.QoS = rawValue(r.QoS)
	}
	c.parseRefConstraints(&fr.Constraints, &fe.Constraints, infra.ID, infra.ID)

	inPort.AddFlowRule(fr)
	c.log.Debug("Added flow rule", logging.Rule(fr.ID), logging.Port(inPort.ID))
	c.metrics.RecordElement(metrics.DirectionParse, "flowrule")
}

// tagContextName names a flow entry endpoint for use in a tag label: external
// refs get a fixed marker, SAP ports their SAP id and NF ports the owning
// node id.
func (c *Converter) tagContextName(p *virtualizer.Port, external bool) string {
	if external || p == nil {
		return extSrcName
	}
	if p.PortType == virtualizer.PortTypeSAP {
		if s := leaf(p.SAP); s != "" {
			return s
		}
		name := leaf(p.Name)
		if strings.HasPrefix(strings.ToUpper(name), c.cfg.SAPPrefix+":") {
			return name[len(c.cfg.SAPPrefix)+1:]
		}
		return name
	}
	if owner := p.Owner(); owner != nil {
		return owner.ID
	}
	return p.ID
}

// ensureExternalPort synthesizes the infra port and the boundary SAP standing
// in for a flow entry endpoint referencing another document.
func (c *Converter) ensureExternalPort(g *nffg.NFFG, infra *nffg.InfraNode, ref string) (*nffg.Port, bool) {
	domain, node, port, ok := parseExternalPort(ref)
	if !ok {
		c.log.Error("Missing id from external flow entry reference",
			logging.String("ref", ref))
		return nil, false
	}
	id := nffg.ExternalIDPrefix + port
	p := infra.Port(id)
	if p == nil {
		p = infra.AddPort(id)
		p.Role = nffg.RoleExternal
		p.AddProperty("domain", domain)
		p.AddProperty("node", node)
		p.AddProperty("port", port)
		p.AddProperty("path", ref)
		c.log.Debug("Added external port", logging.Port(id))
	}
	if sap := g.SAPByID(id); sap != nil {
		if sp := sap.Port(id); sp != nil && sp.Role != nffg.RoleExternal {
			c.log.Error("SAP already exists but is not an external SAP",
				logging.Node(id))
		}
		return p, true
	}
	sap, err := g.AddSAP(id, "")
	if err != nil {
		c.log.Error("Cannot create external SAP", logging.Node(id), logging.Err(err))
		return p, true
	}
	sp := sap.AddPort(id)
	sp.Role = nffg.RoleExternal
	sp.AddProperty("path", ref)
	if _, _, err := g.AddUndirectedLink(p, sp); err != nil {
		c.log.Error("Cannot connect external SAP", logging.Err(err))
	}
	c.log.Debug("Created external SAP", logging.Node(id))
	c.metrics.RecordElement(metrics.DirectionParse, "sap")
	return p, true
}

func (c *Converter) parseInfraMetadata(g *nffg.NFFG, infra *nffg.InfraNode, vnode *virtualizer.Node) {
	for _, md := range vnode.Metadata {
		switch {
		case md.Key == "bandwidth" || md.Key == "delay":
			// Consumed by the node resource inference.
		case strings.HasPrefix(md.Key, "constraint"):
			c.parseRequirementMetadata(g, infra, md.Key, md.Value)
		default:
			infra.AddMetadata(md.Key, md.Value)
		}
	}
}

// reqMetadataEntry is one half of a requirement stored in node metadata.
type reqMetadataEntry struct {
	Value any   `json:"value"`
	Path  []any `json:"path"`
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceIntPath(path []any) ([]int, bool) {
	out := make([]int, 0, len(path))
	for _, e := range path {
		switch t := e.(type) {
		case float64:
			out = append(out, int(t))
		case string:
			n, err := strconv.Atoi(t)
			if err != nil {
				return nil, false
			}
			out = append(out, n)
		default:
			return nil, false
		}
	}
	return out, len(out) > 0
}

func pathsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if fmt.Sprint(a[i]) != fmt.Sprint(b[i]) {
			return false
		}
	}
	return true
}

// parseRequirementMetadata recreates an end-to-end requirement from a
// "constraint:<id>" metadata entry. The value is JSON (tolerating single
// quotes) holding delay and bandwidth entries whose paths must agree.
func (c *Converter) parseRequirementMetadata(g *nffg.NFFG, infra *nffg.InfraNode, key, value string) {
	raw := strings.ReplaceAll(value, "'", `"`)
	var values map[string]reqMetadataEntry
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		c.log.Warn("Cannot decode requirement metadata",
			logging.String("key", key), logging.Err(err))
		return
	}
	var (
		delay, bandwidth *float64
		rawPath          []any
	)
	if e, ok := values["bandwidth"]; ok {
		if f, ok := coerceFloat(e.Value); ok {
			bandwidth = &f
		} else {
			c.log.Warn("Bandwidth in requirement metadata is not a valid number",
				logging.String("key", key))
		}
		rawPath = e.Path
	}
	if e, ok := values["delay"]; ok {
		if f, ok := coerceFloat(e.Value); ok {
			delay = &f
		} else {
			c.log.Warn("Delay in requirement metadata is not a valid number",
				logging.String("key", key))
		}
		if rawPath != nil && !pathsEqual(rawPath, e.Path) {
			c.log.Warn("Delay and bandwidth paths differ in requirement metadata",
				logging.String("key", key))
			return
		}
		if rawPath == nil {
			rawPath = e.Path
		}
	}
	path, ok := coerceIntPath(rawPath)
	if !ok {
		c.log.Warn("Requirement metadata path is missing or malformed",
			logging.String("key", key))
		return
	}

	srcPort := infra.FlowRulePort(path[0])
	var dstPort *nffg.Port
	for _, fr := range infra.FlowRules() {
		if fr.ID == path[len(path)-1] {
			out := c.codec.DecodeAction(fr.Action).Output
			dstPort = infra.Port(out)
			break
		}
	}
	if srcPort == nil || dstPort == nil {
		c.log.Warn("Port reference is missing for requirement link",
			logging.String("key", key))
		return
	}
	_, reqID, found := strings.Cut(key, ":")
	if !found || reqID == "" {
		c.log.Warn("Requirement metadata key has no id suffix",
			logging.String("key", key))
		return
	}
	req := &nffg.Requirement{
		ID:        reqID,
		Src:       srcPort,
		Dst:       dstPort,
		Delay:     delay,
		Bandwidth: bandwidth,
		SGPath:    path,
	}
	if _, err := g.AddRequirement(req); err != nil {
		c.log.Warn("Cannot add requirement link", logging.Err(err))
		return
	}
	c.log.Debug("Created requirement link", logging.String("req", reqID))
	c.metrics.RecordElement(metrics.DirectionParse, "requirement")
}

// parseLinks recreates the inter-node static links of the document root. The
// second link of a reversed pair is marked as the backward half.
func (c *Converter) parseLinks(g *nffg.NFFG, v *virtualizer.Virtualizer) {
	seen := make(map[string]bool)
	for _, vl := range v.Links {
		if vl.Src == nil || vl.Dst == nil {
			c.log.Warn("Skipping link with unresolved endpoint",
				logging.String("link", vl.ID))
			c.metrics.RecordSkipped(metrics.DirectionParse, "dangling_link")
			continue
		}
		srcBB := c.names.UniqueBBID(vl.Src.Owner().ID)
		dstBB := c.names.UniqueBBID(vl.Dst.Owner().ID)
		srcInfra := g.Infra(srcBB)
		dstInfra := g.Infra(dstBB)
		if srcInfra == nil || dstInfra == nil {
			c.log.Warn("Link endpoint node is missing from the graph",
				logging.String("link", vl.ID))
			c.metrics.RecordSkipped(metrics.DirectionParse, "dangling_link")
			continue
		}
		srcPort := srcInfra.Port(vl.Src.ID)
		dstPort := dstInfra.Port(vl.Dst.ID)
		if srcPort == nil || dstPort == nil {
			c.log.Warn("Link endpoint port is missing from the graph",
				logging.String("link", vl.ID))
			c.metrics.RecordSkipped(metrics.DirectionParse, "dangling_link")
			continue
		}
		opts := []nffg.LinkOption{nffg.WithLinkID(vl.ID)}
		if r := vl.Resources; r != nil {
			opts = append(opts, nffg.WithLinkResources(
				c.numericValue("delay", r.Delay),
				c.numericValue("bandwidth", r.Bandwidth),
				rawValue(r.Cost), rawValue(r.QoS)))
		}
		forward := fmt.Sprintf("%s:%s-%s:%s", srcBB, srcPort.ID, dstBB, dstPort.ID)
		reverse := fmt.Sprintf("%s:%s-%s:%s", dstBB, dstPort.ID, srcBB, srcPort.ID)
		if seen[reverse] {
			opts = append(opts, nffg.WithBackward())
		}
		l, err := g.AddLink(srcPort, dstPort, opts...)
		if err != nil {
			c.log.Error("Cannot add static link", logging.Err(err))
			continue
		}
		seen[forward] = true
		c.log.Debug("Added static link", logging.String("link", l.ID))
		c.metrics.RecordElement(metrics.DirectionParse, "link")
	}
}
