package virtualizer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvable is returned when a leafref path does not name an existing
// element of the document.
var ErrUnresolvable = errors.New("unresolvable leafref path")

// absPath returns the absolute path segments of an element, starting with
// the "virtualizer" root segment.
func (v *Virtualizer) absPath() []string { return []string{"virtualizer"} }

func (n *Node) absPath() []string {
	if n.owner != nil {
		return append(n.owner.absPath(),
			"NF_instances", "node[id="+n.ID+"]")
	}
	var base []string
	if n.doc != nil {
		base = n.doc.absPath()
	} else {
		base = []string{"virtualizer"}
	}
	return append(base, "nodes", "node[id="+n.ID+"]")
}

func (p *Port) absPath() []string {
	if p.owner == nil {
		return []string{"port[id=" + p.ID + "]"}
	}
	return append(p.owner.absPath(), "ports", "port[id="+p.ID+"]")
}

func (fe *Flowentry) absPath() []string {
	if fe.owner == nil {
		return []string{"flowentry[id=" + fe.ID + "]"}
	}
	return append(fe.owner.absPath(), "flowtable", "flowentry[id="+fe.ID+"]")
}

func (l *Link) absPath() []string {
	var base []string
	if l.ownerNode != nil {
		base = l.ownerNode.absPath()
	} else if l.doc != nil {
		base = l.doc.absPath()
	} else {
		base = []string{"virtualizer"}
	}
	return append(base, "links", "link[id="+l.ID+"]")
}

// renderRef renders a leafref from the referring element to the target port
// or node, honoring the document's binding mode.
func renderRef(relative bool, from, target []string) string {
	if !relative {
		return "/" + strings.Join(target, "/")
	}
	common := 0
	for common < len(from) && common < len(target) &&
		from[common] == target[common] {
		common++
	}
	var b strings.Builder
	for i := common; i < len(from); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(target[common:], "/"))
	return b.String()
}

// splitStep separates a path step into its element name and optional id key,
// e.g. "node[id=BB1]" into ("node", "BB1").
func splitStep(step string) (name, id string) {
	open := strings.IndexByte(step, '[')
	if open < 0 {
		return step, ""
	}
	name = step[:open]
	inner := strings.TrimSuffix(step[open+1:], "]")
	inner = strings.TrimPrefix(inner, "id=")
	return name, inner
}

// resolveRef resolves a leafref path, absolute or relative, seen from the
// element whose absolute path is from. It returns the target port or node.
func (v *Virtualizer) resolveRef(ref string, from []string) (*Port, *Node, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil, fmt.Errorf("%w: empty path", ErrUnresolvable)
	}
	var segs []string
	if strings.HasPrefix(ref, "/") {
		segs = strings.Split(strings.Trim(ref, "/"), "/")
	} else {
		segs = append(segs, from...)
		for _, step := range strings.Split(ref, "/") {
			switch step {
			case "", ".":
			case "..":
				if len(segs) == 0 {
					return nil, nil, fmt.Errorf("%w: %q escapes the root",
						ErrUnresolvable, ref)
				}
				segs = segs[:len(segs)-1]
			default:
				segs = append(segs, step)
			}
		}
	}
	if len(segs) == 0 || segs[0] != "virtualizer" {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnresolvable, ref)
	}

	var node *Node
	i := 1
	for i < len(segs) {
		name, _ := splitStep(segs[i])
		switch name {
		case "nodes", "NF_instances":
			if i+1 >= len(segs) {
				return nil, nil, fmt.Errorf("%w: %q", ErrUnresolvable, ref)
			}
			_, id := splitStep(segs[i+1])
			if name == "nodes" {
				node = v.Node(id)
			} else if node != nil {
				node = node.NFInstance(id)
			}
			if node == nil {
				return nil, nil, fmt.Errorf("%w: no node %q in %q",
					ErrUnresolvable, id, ref)
			}
			i += 2
		case "ports":
			if node == nil || i+1 >= len(segs) {
				return nil, nil, fmt.Errorf("%w: %q", ErrUnresolvable, ref)
			}
			_, id := splitStep(segs[i+1])
			port := node.Port(id)
			if port == nil {
				return nil, nil, fmt.Errorf("%w: no port %q in %q",
					ErrUnresolvable, id, ref)
			}
			return port, nil, nil
		default:
			return nil, nil, fmt.Errorf("%w: unexpected step %q in %q",
				ErrUnresolvable, segs[i], ref)
		}
	}
	if node == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnresolvable, ref)
	}
	return nil, node, nil
}

// refKey returns a stable identity string for a referenced port, used when
// comparing handles during diffing.
func refKey(p *Port) string {
	if p == nil {
		return ""
	}
	return "/" + strings.Join(p.absPath(), "/")
}

// nodeRefKey returns a stable identity string for a referenced node.
func nodeRefKey(n *Node) string {
	if n == nil {
		return ""
	}
	return "/" + strings.Join(n.absPath(), "/")
}
