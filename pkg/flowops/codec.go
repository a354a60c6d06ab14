package flowops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nfvio/topoconv/pkg/logging"
)

// Codec translates between tagged match/action values and the two string
// vocabularies. Unsupported operators never abort a conversion: in the match
// direction they are dropped with a warning, in the action direction they are
// carried through verbatim.
type Codec struct {
	log logging.Logger
}

// NewCodec creates a codec logging through the given logger.
func NewCodec(log logging.Logger) *Codec {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Codec{log: log.With(logging.Component("flowops"))}
}

// parseTagLabel splits a `src|dst|vlan` label; the last segment must be the
// numeric VLAN id.
func parseTagLabel(value string) (*TagLabel, error) {
	parts := strings.Split(value, LabelDelimiter)
	tail := parts[len(parts)-1]
	vlan, err := strconv.ParseUint(tail, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("VLAN segment %q is not numeric: %w", tail, err)
	}
	t := &TagLabel{VLAN: uint16(vlan)}
	if len(parts) >= 3 {
		t.Src = parts[0]
		t.Dst = strings.Join(parts[1:len(parts)-1], LabelDelimiter)
	}
	return t, nil
}

// DecodeMatch parses a graph-model match string.
func (c *Codec) DecodeMatch(s string) Match {
	var m Match
	for _, token := range splitOps(s) {
		key, value, hasValue := strings.Cut(token, KVDelimiter)
		switch key {
		case OpInPort:
			m.InPort = value
		case OpTag:
			tag, err := parseTagLabel(value)
			if err != nil {
				c.log.Warn("Dropping TAG operand with malformed VLAN label",
					logging.String("token", token), logging.Err(err))
				continue
			}
			m.Tag = tag
		case OpFlowclass:
			m.Flowclass = append(m.Flowclass, value)
		default:
			if !hasValue && key == "" {
				continue
			}
			c.log.Warn("Unsupported match operand", logging.String("operand", key))
		}
	}
	return m
}

// EncodeMatch renders the graph-model match string.
func (c *Codec) EncodeMatch(m Match) string {
	tokens := []string{OpInPort + KVDelimiter + m.InPort}
	if m.Tag != nil {
		tokens = append(tokens, OpTag+KVDelimiter+m.Tag.String())
	}
	for _, fc := range m.Flowclass {
		tokens = append(tokens, OpFlowclass+KVDelimiter+fc)
	}
	return strings.Join(tokens, OpDelimiter)
}

// DecodeAction parses a graph-model action string.
func (c *Codec) DecodeAction(s string) Action {
	var a Action
	for _, token := range splitOps(s) {
		key, value, _ := strings.Cut(token, KVDelimiter)
		switch key {
		case OpOutput:
			a.Output = value
		case OpTag:
			tag, err := parseTagLabel(value)
			if err != nil {
				c.log.Warn("Dropping TAG operand with malformed VLAN label",
					logging.String("token", token), logging.Err(err))
				continue
			}
			a.Push = tag
		case OpUntag:
			a.Pop = true
		case "":
			// empty token from trailing delimiter
		default:
			c.log.Debug("Explicit action operand detected",
				logging.String("operand", key))
			a.Extra = append(a.Extra, token)
		}
	}
	return a
}

// EncodeAction renders the graph-model action string.
func (c *Codec) EncodeAction(a Action) string {
	tokens := []string{OpOutput + KVDelimiter + a.Output}
	if a.Push != nil {
		tokens = append(tokens, OpTag+KVDelimiter+a.Push.String())
	}
	if a.Pop {
		tokens = append(tokens, OpUntag)
	}
	tokens = append(tokens, a.Extra...)
	return strings.Join(tokens, OpDelimiter)
}

// EncodeVirtMatch renders the tree-model match string: the VLAN tag as
// 4-hex-digit `dl_tag` plus any flowclass tokens. The in_port operand is
// carried by the flow entry's port leafref, never by the match string.
func (c *Codec) EncodeVirtMatch(m Match) string {
	var tokens []string
	if m.Tag != nil {
		tokens = append(tokens, fmt.Sprintf("%s%s0x%04x", MatchTag, KVDelimiter, m.Tag.VLAN))
	}
	tokens = append(tokens, m.Flowclass...)
	return strings.Join(tokens, OpDelimiter)
}

// DecodeVirtMatch parses a tree-model match string into the VLAN id and the
// remaining flowclass tokens. Accepts hex or decimal VLAN values.
func (c *Codec) DecodeVirtMatch(s string) (vlan *uint16, flowclass []string) {
	for _, token := range splitOps(s) {
		switch {
		case token == "":
		case strings.HasPrefix(token, OpInPort):
			// redundant with the port leafref
		case strings.HasPrefix(token, MatchTag):
			_, value, _ := strings.Cut(token, KVDelimiter)
			n, err := strconv.ParseUint(value, 0, 16)
			if err != nil {
				c.log.Warn("Malformed dl_tag value",
					logging.String("token", token), logging.Err(err))
				continue
			}
			v := uint16(n)
			vlan = &v
		default:
			// Everything else must come from flowclass.
			flowclass = append(flowclass, token)
		}
	}
	return vlan, flowclass
}

// EncodeVirtAction renders the tree-model action string.
func (c *Codec) EncodeVirtAction(a Action) string {
	var tokens []string
	if a.Push != nil {
		tokens = append(tokens, fmt.Sprintf("%s:0x%04x", ActionPushTag, a.Push.VLAN))
	}
	if a.Pop {
		tokens = append(tokens, ActionPopTag)
	}
	tokens = append(tokens, a.Extra...)
	return strings.Join(tokens, OpDelimiter)
}

// DecodeVirtAction parses a tree-model action string. Unknown operators are
// passed through verbatim.
func (c *Codec) DecodeVirtAction(s string) (push *uint16, pop bool, extra []string) {
	for _, token := range splitOps(s) {
		switch {
		case token == "":
		case strings.HasPrefix(token, ActionPushTag):
			_, value, ok := strings.Cut(token, ":")
			if !ok {
				c.log.Warn("Malformed push_tag operand", logging.String("token", token))
				continue
			}
			n, err := strconv.ParseUint(value, 0, 16)
			if err != nil {
				c.log.Warn("Malformed push_tag value",
					logging.String("token", token), logging.Err(err))
				continue
			}
			v := uint16(n)
			push = &v
		case token == ActionPopTag:
			pop = true
		default:
			extra = append(extra, token)
		}
	}
	return push, pop, extra
}
