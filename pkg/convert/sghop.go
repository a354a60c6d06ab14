package convert

import (
	"strings"

	"github.com/nfvio/topoconv/pkg/flowops"
	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/nffg"
)

// reconstructSGHops rebuilds the logical service hops of a collapsed
// single-node view from its flow rules. A hop's endpoints are the NF or SAP
// ports found by tracing the rule's in-port and output through the real
// out-edges of the node; a rule whose endpoints cannot be traced to exactly
// one opposite port is skipped, and a rule missing the in-port or output
// operand aborts the whole reconstruction.
func (c *Converter) reconstructSGHops(g *nffg.NFFG) {
	if !g.IsSingleInfra() {
		return
	}
	c.log.Debug("Detected single-node view, recreating service hops from flow rules")
	for _, sbb := range g.Infras {
		out := g.OutLinks(sbb.ID)
		for _, fr := range sbb.FlowRules() {
			if fr.External {
				c.log.Debug("Skipping external flow rule", logging.Rule(fr.ID))
				c.metrics.RecordSGHopSkipped("external")
				continue
			}
			m := c.codec.DecodeMatch(fr.Match)
			if m.InPort == "" {
				c.log.Warn("Hop in-port cannot be determined from flow rule",
					logging.Rule(fr.ID))
				c.metrics.RecordSGHopSkipped("missing_in_port")
				return
			}
			src := oppositePort(out, m.InPort)
			if src == nil {
				c.log.Warn("Hop source port cannot be detected",
					logging.Rule(fr.ID), logging.Port(m.InPort))
				c.metrics.RecordSGHopSkipped("ambiguous_src")
				continue
			}
			a := c.codec.DecodeAction(fr.Action)
			if a.Output == "" {
				c.log.Warn("Hop output cannot be determined from flow rule",
					logging.Rule(fr.ID))
				c.metrics.RecordSGHopSkipped("missing_output")
				return
			}
			dst := oppositePort(out, a.Output)
			if dst == nil {
				c.log.Warn("Hop destination port cannot be detected",
					logging.Rule(fr.ID), logging.Port(a.Output))
				c.metrics.RecordSGHopSkipped("ambiguous_dst")
				continue
			}
			hop := &nffg.SGHop{
				ID:          fr.ID,
				Src:         src,
				Dst:         dst,
				Flowclass:   strings.Join(m.Flowclass, flowops.OpDelimiter),
				Delay:       fr.Delay,
				Bandwidth:   fr.Bandwidth,
				Constraints: fr.Constraints,
			}
			if _, err := g.AddSGHop(hop); err != nil {
				c.log.Warn("Cannot recreate service hop",
					logging.Rule(fr.ID), logging.Err(err))
				c.metrics.RecordSGHopSkipped("invalid_endpoint")
				continue
			}
			c.log.Debug("Recreated service hop", logging.Rule(hop.ID))
			c.metrics.RecordSGHop()
		}
	}
}

// oppositePort returns the far end of the unique out-edge starting at the
// given port id, or nil when zero or several candidates exist.
func oppositePort(links []*nffg.Link, portID string) *nffg.Port {
	var found *nffg.Port
	for _, l := range links {
		if l.Src.ID != portID {
			continue
		}
		if found != nil {
			return nil
		}
		found = l.Dst
	}
	return found
}
