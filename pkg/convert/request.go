package convert

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/nffg"
	"github.com/nfvio/topoconv/pkg/virtualizer"
	"github.com/nfvio/topoconv/pkg/vlan"
)

// NormalizeHopIDs rewrites the service graph's hop ids into VLAN-sized
// values through the given registry, keyed by the graph id. Requirement
// paths referring to the old ids are updated in step. Descriptor
// translation produces arbitrary hop ids, and the flow entries derived
// from a hop embed its id as a VLAN tag, so the ids must fit the tag
// space before conversion.
func (c *Converter) NormalizeHopIDs(g *nffg.NFFG, alloc *vlan.Allocator) error {
	mapping := make(map[int]int, len(g.Hops))
	for _, hop := range g.Hops {
		id, err := alloc.Allocate(strconv.Itoa(hop.ID), g.ID)
		if err != nil {
			c.metrics.RecordVLANExhaustion()
			return fmt.Errorf("normalize hop %d: %w", hop.ID, err)
		}
		c.metrics.RecordVLANAllocation()
		mapping[hop.ID] = int(id)
	}
	for _, hop := range g.Hops {
		hop.ID = mapping[hop.ID]
	}
	for _, req := range g.Reqs {
		for i, id := range req.SGPath {
			if v, ok := mapping[id]; ok {
				req.SGPath[i] = v
			}
		}
	}
	return nil
}

// GenerateSBBBase builds a single BiSBiS view seeded with the SAPs of the
// given request. It serves as the base document when a request arrives
// without one.
func (c *Converter) GenerateSBBBase(request *nffg.NFFG) *virtualizer.Virtualizer {
	base := virtualizer.New(SingleBiSBiSID, "Single-BiSBiS-View")
	sbb := virtualizer.NewNode(SingleBiSBiSID)
	sbb.Name = strp(SingleBiSBiSID)
	sbb.Type = strp(TypeBiSBiS)
	sbb.SetMetadata("generated", "true")
	for _, sap := range request.SAPs {
		vp := virtualizer.NewPort(sap.ID, virtualizer.PortTypeSAP)
		if sap.Name != "" {
			vp.Name = strp(sap.Name)
		}
		if len(sap.Ports) == 0 {
			c.log.Warn("SAP has no port", logging.Node(sap.ID))
			sbb.AddPort(vp)
			continue
		}
		if len(sap.Ports) > 1 {
			c.log.Warn("Multiple SAP ports detected", logging.Node(sap.ID))
		}
		c.dumpPortAttrs(sap.Ports[0], vp)
		sbb.AddPort(vp)
		c.log.Debug("Added SAP port", logging.Port(vp.ID))
	}
	base.AddNode(sbb)
	return base
}

// ServiceRequestInit converts a service request graph into a tree document
// built on the given base. Without a base a generated single BiSBiS view is
// used. With reinstall set, NFs and flow entries already present in the base
// are removed first so a later diff reflects the whole request.
func (c *Converter) ServiceRequestInit(request *nffg.NFFG, base *virtualizer.Virtualizer, reinstall bool) *virtualizer.Virtualizer {
	start := time.Now()
	if base != nil {
		c.log.Debug("Using given base document", logging.String("id", base.ID))
		base = base.Clone()
		if reinstall {
			c.log.Debug("Removing pre-installed NFs and flow entries")
			ClearInstalled(base)
		}
	} else {
		c.log.Debug("No base document given, generating single BiSBiS view")
		base = c.GenerateSBBBase(request)
	}
	base.ID = request.ID
	base.Name = nil
	if request.Name != "" {
		base.Name = strp(request.Name)
	}
	if len(base.Nodes) < 1 {
		c.log.Warn("No BiSBiS node was detected in the base document")
		c.metrics.RecordRequest("init", "empty_base", time.Since(start))
		return base
	}
	if len(base.Nodes) > 1 {
		c.log.Warn("Multiple BiSBiS nodes detected in the base document")
	}
	sbb := base.Nodes[0]
	c.log.Debug("Detected BiSBiS node", logging.Node(sbb.ID))

	for _, nf := range request.NFs {
		vnfID := c.names.RecreateNFID(nf.ID)
		if sbb.NFInstance(vnfID) != nil {
			c.log.Error("NF already exists in the document", logging.Node(vnfID))
			continue
		}
		vnf := c.assembleNF(nf)
		sbb.AddNFInstance(vnf)
		for _, port := range nf.Ports {
			vnf.AddPort(c.assembleNFPort(port))
		}
		c.log.Debug("Added NF", logging.Node(vnfID), logging.Node(sbb.ID))
	}

	for _, hop := range request.Hops {
		src := c.requestHopPort(sbb, hop.Src)
		dst := c.requestHopPort(sbb, hop.Dst)
		if src == nil || dst == nil {
			c.log.Error("Hop endpoint is missing from the document",
				logging.Rule(hop.ID))
			continue
		}
		fe := &virtualizer.Flowentry{
			ID:       strconv.Itoa(hop.ID),
			Priority: strp("100"),
			Port:     src,
			Out:      dst,
		}
		if hop.Flowclass != "" {
			fe.Match = strp(hop.Flowclass)
		}
		if hop.Delay.IsSet() || hop.Bandwidth.IsSet() {
			fe.Resources = &virtualizer.LinkResource{
				Delay:     optLeaf(hop.Delay),
				Bandwidth: optLeaf(hop.Bandwidth),
			}
		}
		sbb.AddFlowentry(fe)
		c.log.Debug("Added flow entry", logging.Rule(hop.ID))
	}

	// Requirement endpoints of a request are SAP ports of the single node,
	// so the formulas always land on the detected node.
	for _, req := range request.Reqs {
		if req.Src.Node().ID != req.Dst.Node().ID {
			c.log.Warn("Requirement endpoints are not on the same node, skipping",
				logging.String("req", req.ID))
			continue
		}
		if req.Delay != nil {
			if formula := c.requirementFormula(sbb, req, "delay"); formula != "" {
				sbb.Constraints.AddConstraint("delay-"+req.ID, formula)
				c.log.Debug("Generated delay formula",
					logging.String("formula", formula))
			}
		}
		if req.Bandwidth != nil {
			if formula := c.requirementFormula(sbb, req, "bandwidth"); formula != "" {
				sbb.Constraints.AddConstraint("bandwidth-"+req.ID, formula)
				c.log.Debug("Generated bandwidth formula",
					logging.String("formula", formula))
			}
		}
	}

	c.log.Debug("Converting NF constraints")
	for _, nf := range request.NFs {
		vnf := sbb.NFInstance(c.names.RecreateNFID(nf.ID))
		if vnf == nil {
			continue
		}
		c.dumpRefConstraints(base, &vnf.Constraints, &nf.Constraints, nf.ID)
	}

	for _, key := range sortedKeys(request.Metadata) {
		base.SetMetadata(key, request.Metadata[key])
	}
	base.Bind(true)
	c.metrics.RecordRequest("init", "ok", time.Since(start))
	return base
}

// requestHopPort resolves a hop endpoint to a port of the single node: SAP
// endpoints map to the node's own SAP port, NF endpoints to the instance
// port.
func (c *Converter) requestHopPort(sbb *virtualizer.Node, p *nffg.Port) *virtualizer.Port {
	if p.Node().Type == nffg.TypeSAP {
		return sbb.Port(p.Node().ID)
	}
	vnf := sbb.NFInstance(c.names.RecreateNFID(p.Node().ID))
	if vnf == nil {
		return nil
	}
	return vnf.Port(p.ID)
}

// ServiceRequestDel removes the NFs and flow entries of a service request
// from a copy of the base document. The caller typically diffs the result
// against the base to obtain the delete request.
func (c *Converter) ServiceRequestDel(request *nffg.NFFG, base *virtualizer.Virtualizer) *virtualizer.Virtualizer {
	start := time.Now()
	c.log.Debug("Using given base document", logging.String("id", base.ID))
	out := base.Clone()
	out.ID = request.ID
	out.Name = nil
	if request.Name != "" {
		out.Name = strp(request.Name)
	}
	if len(out.Nodes) < 1 {
		c.log.Warn("No BiSBiS node was detected in the base document")
		c.metrics.RecordRequest("del", "empty_base", time.Since(start))
		return out
	}
	if len(out.Nodes) > 1 {
		c.log.Warn("Multiple BiSBiS nodes detected in the base document")
	}
	sbb := out.Nodes[0]
	c.log.Debug("Detected BiSBiS node", logging.Node(sbb.ID))

	for _, nf := range request.NFs {
		vnfID := c.names.RecreateNFID(nf.ID)
		if !sbb.RemoveNFInstance(vnfID) {
			c.log.Error("NF is missing from the document", logging.Node(vnfID))
			continue
		}
		c.log.Debug("Removed NF", logging.Node(vnfID))
	}
	for _, hop := range request.Hops {
		id := strconv.Itoa(hop.ID)
		if !sbb.RemoveFlowentry(id) {
			c.log.Error("Flow entry is missing from the document",
				logging.Rule(hop.ID))
			continue
		}
		c.log.Debug("Removed flow entry", logging.Rule(hop.ID))
	}
	c.metrics.RecordRequest("del", "ok", time.Since(start))
	return out
}
