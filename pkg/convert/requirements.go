package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nfvio/topoconv/pkg/logging"
	"github.com/nfvio/topoconv/pkg/metrics"
	"github.com/nfvio/topoconv/pkg/nffg"
)

// Requirement formulas travel through the tree model as node-level
// constraints of the form "$v1+$v2+...|max|<value>". Each variable occupies
// the delay or bandwidth slot of one flow entry on the hosting node; the
// tail is the end-to-end value. The other direction builds that encoding in
// the dump path; this file dissolves it.

// delayVar and bandwidthVar name the per-flow-entry formula variables.
func delayVar(feID string) string     { return "$d" + feID }
func bandwidthVar(feID string) string { return "$bw" + feID }

// parseRequirementFormulas dissolves the constraint formulas of every infra
// node back into end-to-end requirements. The consumed formulas and the
// variable placeholders on the flow rules are removed; a requirement touched
// by both a delay and a bandwidth formula is merged on its port pair.
func (c *Converter) parseRequirementFormulas(g *nffg.NFFG) {
	c.log.Debug("Process requirement formulas")
	type portPair struct{ src, dst *nffg.Port }
	reqs := make(map[portPair]*nffg.Requirement)
	created := 0
	for _, infra := range g.Infras {
		var consumed []string
		for _, id := range infra.Constraints.FormulaIDs() {
			formula := infra.Constraints.Formulas[id]
			c.log.Debug("Detected formula", logging.String("formula", formula))
			segments := strings.Split(formula, "|")
			value, err := strconv.ParseFloat(strings.TrimSpace(segments[len(segments)-1]), 64)
			if err != nil || len(segments) < 2 {
				c.log.Warn("Wrong formula format", logging.String("formula", formula))
				c.metrics.RecordFormulaFailure()
				continue
			}
			variables := strings.Split(strings.TrimSpace(segments[0]), "+")
			frs, kind := c.matchFormulaVariables(infra, variables)
			if len(frs) == 0 || kind == "" {
				continue
			}
			sgPath := make([]int, len(frs))
			for i, fr := range frs {
				sgPath[i] = fr.ID
			}
			c.log.Debug("Recreated hop list", logging.Any("sg_path", sgPath))

			srcPort := infra.FlowRulePort(frs[0].ID)
			out := c.codec.DecodeAction(frs[len(frs)-1].Action).Output
			dstPort := infra.Port(out)
			if srcPort == nil || dstPort == nil {
				c.log.Error("Referred port is missing from infra node",
					logging.Node(infra.ID))
				c.metrics.RecordFormulaFailure()
				continue
			}

			key := portPair{srcPort, dstPort}
			req := reqs[key]
			if req == nil {
				req = &nffg.Requirement{
					ID:     fmt.Sprintf("req%d", created),
					Src:    srcPort,
					Dst:    dstPort,
					SGPath: sgPath,
				}
				if _, err := g.AddRequirement(req); err != nil {
					c.log.Error("Cannot add requirement link", logging.Err(err))
					continue
				}
				reqs[key] = req
				created++
				c.log.Debug("Created requirement link", logging.String("req", req.ID))
				c.metrics.RecordElement(metrics.DirectionParse, "requirement")
			}
			if kind == "delay" {
				req.Delay = &value
			} else {
				req.Bandwidth = &value
			}
			// The variable placeholders were only transport encoding.
			for _, fr := range frs {
				if kind == "delay" {
					fr.Delay = nffg.Value{}
				} else {
					fr.Bandwidth = nffg.Value{}
				}
			}
			consumed = append(consumed, id)
		}
		for _, id := range consumed {
			infra.Constraints.DelFormula(id)
		}
	}
}

// matchFormulaVariables resolves formula variables against the raw delay and
// bandwidth placeholders of the node's flow rules. All variables of one
// formula must refer to the same dimension.
func (c *Converter) matchFormulaVariables(infra *nffg.InfraNode, variables []string) ([]*nffg.FlowRule, string) {
	var frs []*nffg.FlowRule
	kinds := make(map[string]bool)
	for _, variable := range variables {
		variable = strings.TrimSpace(variable)
		for _, fr := range infra.FlowRules() {
			if isRawValue(fr.Delay, variable) {
				frs = append(frs, fr)
				kinds["delay"] = true
			}
			if isRawValue(fr.Bandwidth, variable) {
				frs = append(frs, fr)
				kinds["bandwidth"] = true
			}
		}
	}
	if len(kinds) != 1 {
		c.log.Warn("Formula variables refer to zero or multiple dimensions",
			logging.Any("variables", variables), logging.Int("dimensions", len(kinds)))
		c.metrics.RecordFormulaFailure()
		return nil, ""
	}
	for kind := range kinds {
		return frs, kind
	}
	return nil, ""
}

func isRawValue(v nffg.Value, s string) bool {
	if _, numeric := v.Number(); numeric || !v.IsSet() {
		return false
	}
	return v.Raw() == s
}
