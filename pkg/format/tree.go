package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// Tree writes an indented outline of the AST rooted at n, one node per
// line: the node kind, its distinguishing attribute and its byte range.
func Tree(w io.Writer, n ast.Node) error {
	return tree(w, n, 0)
}

func tree(w io.Writer, n ast.Node, depth int) error {
	span := n.Span()
	line := strings.Repeat("  ", depth) + kind(n)
	if d := detail(n); d != "" {
		line += " " + d
	}
	if _, err := fmt.Fprintf(w, "%s [%d,%d)\n", line, span.From, span.To); err != nil {
		return err
	}
	for _, c := range ast.Children(n) {
		if err := tree(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func kind(n ast.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
}

func detail(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Label:
		return n.Name
	case *ast.Goto:
		return n.Name
	case *ast.For:
		return n.Name
	case *ast.ForIn:
		return strings.Join(n.Names, ", ")
	case *ast.LocalFunction:
		return n.Name
	case *ast.String:
		return strconv.Quote(n.Value)
	case *ast.Number:
		return formatNumber(n.Value)
	case *ast.Boolean:
		return strconv.FormatBool(n.Value)
	case *ast.Variable:
		return n.Name
	case *ast.Binary:
		return n.Operator
	case *ast.Unary:
		return n.Operator
	case *ast.PropertyAccess:
		return "." + n.Property
	case *ast.FunctionCall:
		if n.Name != "" {
			return ":" + n.Name
		}
	case *ast.PropField:
		return n.Key
	case *ast.FunctionName:
		p := newPrinter()
		p.formatFunctionName(n)
		return p.raw()
	case *ast.FunctionBody:
		return "(" + strings.Join(n.Parameters, ", ") + ")"
	case *ast.AttName:
		if n.Attribute != "" {
			return n.Name + " <" + n.Attribute + ">"
		}
		return n.Name
	}
	return ""
}
