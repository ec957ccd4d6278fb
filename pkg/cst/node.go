// Package cst defines the concrete syntax tree handed from a grammar engine
// to the space-lua lowering pass.
//
// The shape mirrors a lezer parse tree converted to plain data: every node has
// a type name and a half-open [From, To) byte range; leaves carry literal text
// and no type. Keyword and punctuation tokens are typed nodes ("if", "(", ...)
// whose single child is the text leaf.
package cst

import (
	"fmt"
	"strings"
)

// Node is a CST node.
type Node struct {
	Type     string  `json:"type,omitempty"`
	From     int     `json:"from"`
	To       int     `json:"to"`
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// NewLeaf creates an untyped text leaf.
func NewLeaf(text string, from int) *Node {
	return &Node{From: from, To: from + len(text), Text: text}
}

// NewToken creates a typed token node wrapping a single text leaf.
func NewToken(typ, text string, from int) *Node {
	return &Node{
		Type:     typ,
		From:     from,
		To:       from + len(text),
		Children: []*Node{NewLeaf(text, from)},
	}
}

// NewNode creates an interior node spanning its children. Empty nodes
// (no children) get the zero-width range at pos.
func NewNode(typ string, pos int, children ...*Node) *Node {
	n := &Node{Type: typ, From: pos, To: pos, Children: children}
	if len(children) > 0 {
		n.From = children[0].From
		n.To = children[len(children)-1].To
	}
	return n
}

// IsLeaf reports whether n is an untyped text leaf.
func (n *Node) IsLeaf() bool {
	return n.Type == "" && len(n.Children) == 0
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.Children)
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// TokenText returns the literal text of a token node (its first leaf child),
// or the node's own text when it is a leaf.
func (n *Node) TokenText() (string, bool) {
	if n.IsLeaf() {
		return n.Text, true
	}
	if len(n.Children) == 0 || !n.Children[0].IsLeaf() {
		return "", false
	}
	return n.Children[0].Text, true
}

// SourceText concatenates all leaf text under n.
func (n *Node) SourceText() string {
	if n.IsLeaf() {
		return n.Text
	}
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		if c.IsLeaf() {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// Walk calls fn for n and its descendants in pre-order; returning false
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Without returns the children whose type is not one of types.
func (n *Node) Without(types ...string) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !oneOf(c.Type, types) {
			out = append(out, c)
		}
	}
	return out
}

// Only returns the children whose type is one of types.
func (n *Node) Only(types ...string) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if oneOf(c.Type, types) {
			out = append(out, c)
		}
	}
	return out
}

// Describe returns a short human-readable label for diagnostics.
func (n *Node) Describe() string {
	if n == nil {
		return "<nil>"
	}
	if n.IsLeaf() {
		return fmt.Sprintf("text %q", n.Text)
	}
	if txt, ok := n.TokenText(); ok && len(n.Children) == 1 {
		return fmt.Sprintf("%s %q", n.Type, txt)
	}
	return n.Type
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
