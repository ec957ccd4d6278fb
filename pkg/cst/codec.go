package cst

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tailscale/hujson"
)

// Decode parses a CST from JSON. Comments and trailing commas are accepted
// so hand-written fixtures can be annotated.
func Decode(data []byte) (*Node, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid CST document: %w", err)
	}
	var n Node
	if err := json.Unmarshal(std, &n); err != nil {
		return nil, fmt.Errorf("decode CST: %w", err)
	}
	if err := Validate(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Encode serializes n as indented JSON.
func Encode(n *Node) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode CST: %w", err)
	}
	return hujson.Format(data)
}

// Validate checks the structural well-formedness every lowering rule relies on:
// ranges are ordered and every node is either typed or a text leaf.
func Validate(n *Node) error {
	var err error
	n.Walk(func(c *Node) bool {
		if err != nil {
			return false
		}
		switch {
		case c.From > c.To:
			err = fmt.Errorf("node %s has inverted range [%d,%d)", c.Describe(), c.From, c.To)
		case c.Type == "" && len(c.Children) > 0:
			err = fmt.Errorf("untyped node at %d has children", c.From)
		case c.Type != "" && c.Text != "":
			err = fmt.Errorf("typed node %s at %d carries text", c.Type, c.From)
		}
		return err == nil
	})
	return err
}

// Dump writes an indented outline of n, one node per line.
func Dump(w io.Writer, n *Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	var line string
	switch {
	case n.IsLeaf():
		line = fmt.Sprintf("%s%q [%d,%d)\n", indent, n.Text, n.From, n.To)
	default:
		line = fmt.Sprintf("%s%s [%d,%d)\n", indent, n.Type, n.From, n.To)
	}
	if _, err := io.WriteString(w, line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
