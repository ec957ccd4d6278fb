package format

import (
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// Format prints a chunk as canonical space-lua source.
func Format(block *ast.Block) string {
	p := newPrinter()
	p.formatStatements(block)
	return p.String()
}

// WithComments prints a chunk and re-attaches comments by position. src is
// the source the block and comments were produced from.
func WithComments(block *ast.Block, comments []token.Comment, src string) string {
	p := newPrinter()
	p.comments = Decorate(block, comments, src)
	p.formatStatements(block)
	p.commentLines(p.comments.rest())
	return p.String()
}

// Expression prints a single expression without a trailing newline.
func Expression(e ast.Expression) string {
	p := newPrinter()
	p.formatExpr(e)
	return p.raw()
}
