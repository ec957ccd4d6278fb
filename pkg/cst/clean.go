package cst

import "strings"

// Clean returns a copy of n with trivial leaves removed: untyped text leaves
// that are empty or whitespace only (gaps between tokens, including blanked
// comments). Typed nodes are always kept, even when they have no children,
// because lowering addresses children by position.
func Clean(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{Type: n.Type, From: n.From, To: n.To, Text: n.Text}
	if len(n.Children) == 0 {
		return out
	}
	out.Children = make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if isTrivial(c) {
			continue
		}
		out.Children = append(out.Children, Clean(c))
	}
	return out
}

func isTrivial(n *Node) bool {
	return n.IsLeaf() && strings.TrimSpace(n.Text) == ""
}
