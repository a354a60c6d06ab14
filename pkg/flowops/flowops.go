// Package flowops encodes and decodes the OpenFlow-like match/action
// mini-language embedded as strings in flow entries. Two string vocabularies
// exist: the graph model's (`in_port`, `TAG`, `UNTAG`, `output`, `flowclass`)
// and the tree model's (`dl_tag`, `push_tag`, `pop_tag`). In between, matches
// and actions are plain tagged values; the string forms live only at the
// serialization boundary.
package flowops

import (
	"fmt"
	"strings"
)

// Operator vocabulary of the graph model direction.
const (
	OpInPort    = "in_port"
	OpOutput    = "output"
	OpTag       = "TAG"
	OpUntag     = "UNTAG"
	OpFlowclass = "flowclass"
)

// Operator vocabulary of the tree model direction.
const (
	MatchTag      = "dl_tag"
	ActionPushTag = "push_tag"
	ActionPopTag  = "pop_tag"
)

// Delimiters shared by both vocabularies.
const (
	OpDelimiter    = ";"
	KVDelimiter    = "="
	LabelDelimiter = "|"
)

// TagLabel is a VLAN tag with its label context: the source and destination
// element names the tag was allocated for. Only the numeric tail is
// significant in the tree model direction.
type TagLabel struct {
	Src  string
	Dst  string
	VLAN uint16
}

// String renders the `src|dst|vlan` label form.
func (t TagLabel) String() string {
	return fmt.Sprintf("%s%s%s%s%d", t.Src, LabelDelimiter, t.Dst, LabelDelimiter, t.VLAN)
}

// Match is the decoded form of a flow rule match.
type Match struct {
	InPort    string
	Tag       *TagLabel
	Flowclass []string // opaque passthrough tokens
}

// Equal compares two matches field-wise.
func (m Match) Equal(o Match) bool {
	if m.InPort != o.InPort {
		return false
	}
	if (m.Tag == nil) != (o.Tag == nil) {
		return false
	}
	if m.Tag != nil && *m.Tag != *o.Tag {
		return false
	}
	return equalTokens(m.Flowclass, o.Flowclass)
}

// Action is the decoded form of a flow rule action.
type Action struct {
	Output string
	Push   *TagLabel
	Pop    bool
	Extra  []string // unrecognized operators, passed through verbatim
}

// Equal compares two actions field-wise.
func (a Action) Equal(o Action) bool {
	if a.Output != o.Output || a.Pop != o.Pop {
		return false
	}
	if (a.Push == nil) != (o.Push == nil) {
		return false
	}
	if a.Push != nil && *a.Push != *o.Push {
		return false
	}
	return equalTokens(a.Extra, o.Extra)
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitOps(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, OpDelimiter)
}
