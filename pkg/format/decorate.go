package format

import (
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// CommentMap holds comments attached to statements by position.
type CommentMap struct {
	leading  map[ast.Statement][]token.Comment
	trailing map[ast.Statement][]token.Comment
	comments []token.Comment
	used     []bool
}

// Decorate attaches comments to statements: a comment on a line before a
// statement leads it, a comment starting on the line a statement ends trails it.
func Decorate(block *ast.Block, comments []token.Comment, src string) *CommentMap {
	d := &CommentMap{
		leading:  make(map[ast.Statement][]token.Comment),
		trailing: make(map[ast.Statement][]token.Comment),
		comments: comments,
		used:     make([]bool, len(comments)),
	}
	if len(comments) == 0 || block == nil {
		return d
	}

	ast.Inspect(block, func(n ast.Node) bool {
		stmt, ok := n.(ast.Statement)
		if !ok || stmt == ast.Statement(block) {
			return true
		}
		if _, isBlock := stmt.(*ast.Block); isBlock {
			// do ... end is printed through its parent statement
			return true
		}
		d.attach(stmt, src)
		return true
	})
	return d
}

func (d *CommentMap) attach(stmt ast.Statement, src string) {
	span := stmt.Span()
	start := token.PositionAt(src, span.From)
	end := token.PositionAt(src, span.To)

	for i, c := range d.comments {
		if d.used[i] {
			continue
		}

		// Leading: comment ends before node starts, on previous line
		if c.Span.End.Offset <= span.From && c.Span.End.Line < start.Line {
			d.leading[stmt] = append(d.leading[stmt], c)
			d.used[i] = true
			continue
		}

		// Trailing: comment starts after node ends, on same line
		if c.Span.Start.Offset >= span.To && c.Span.Start.Line == end.Line {
			d.trailing[stmt] = append(d.trailing[stmt], c)
			d.used[i] = true
		}
	}
}

// rest returns the comments no statement claimed.
func (d *CommentMap) rest() []token.Comment {
	if d == nil {
		return nil
	}
	var out []token.Comment
	for i, c := range d.comments {
		if !d.used[i] {
			out = append(out, c)
		}
	}
	return out
}
