// Package lua lowers space-lua source into the typed AST of package ast.
//
// The pipeline is: StripComments, a grammar.Grammar producing a CST,
// cst.Clean, then positional lowering of the cleaned CST. Any failure aborts
// the whole parse; no partial tree is returned.
package lua

import (
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
)

// Parser runs the lowering pipeline. The zero value is not usable; use New.
// A Parser holds no per-parse state and is safe for concurrent use when its
// grammar is.
type Parser struct {
	grammar grammar.Grammar
}

// Option configures a Parser.
type Option func(*Parser)

// WithGrammar replaces the built-in grammar engine.
func WithGrammar(g grammar.Grammar) Option {
	return func(p *Parser) {
		if g != nil {
			p.grammar = g
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{grammar: grammar.Lua()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse parses a chunk with the built-in grammar.
func Parse(src string, ctx ast.Context) (*ast.Block, error) {
	return defaultParser.Parse(src, ctx)
}

// ParseExpression parses a single expression with the built-in grammar.
func ParseExpression(src string, ctx ast.Context) (ast.Expression, error) {
	return defaultParser.ParseExpression(src, ctx)
}

// ParseExpressionList parses a comma-separated expression list with the
// built-in grammar.
func ParseExpressionList(src string, ctx ast.Context) ([]ast.Expression, error) {
	return defaultParser.ParseExpressionList(src, ctx)
}

// Parse strips comments from src, parses it as a chunk and lowers the result.
// Every node carries ctx as its ambient context.
func (p *Parser) Parse(src string, ctx ast.Context) (*ast.Block, error) {
	root, err := p.CST(src)
	if err != nil {
		return nil, err
	}
	block, err := Lower(root, ctx)
	if err != nil {
		return nil, locate(err, src)
	}
	return block, nil
}

// ParseExpression is Parse for a single expression.
func (p *Parser) ParseExpression(src string, ctx ast.Context) (ast.Expression, error) {
	root, err := p.ExpressionCST(src)
	if err != nil {
		return nil, err
	}
	expr, err := LowerExpression(root, ctx)
	if err != nil {
		return nil, locate(err, src)
	}
	return expr, nil
}

// ParseExpressionList is Parse at the expression-list position. A single
// expression yields a list of one.
func (p *Parser) ParseExpressionList(src string, ctx ast.Context) ([]ast.Expression, error) {
	root, err := p.ExpressionListCST(src)
	if err != nil {
		return nil, err
	}
	exps, err := LowerExpressionList(root, ctx)
	if err != nil {
		return nil, locate(err, src)
	}
	return exps, nil
}

// CST returns the cleaned concrete syntax tree of a chunk.
func (p *Parser) CST(src string) (*cst.Node, error) {
	stripped, err := StripComments(src)
	if err != nil {
		return nil, err
	}
	root, err := p.grammar.Parse(stripped)
	if err != nil {
		return nil, locate(err, src)
	}
	return cst.Clean(root), nil
}

// ExpressionCST returns the cleaned concrete syntax tree of an expression.
func (p *Parser) ExpressionCST(src string) (*cst.Node, error) {
	stripped, err := StripComments(src)
	if err != nil {
		return nil, err
	}
	root, err := p.grammar.ParseExpression(stripped)
	if err != nil {
		return nil, locate(err, src)
	}
	return cst.Clean(root), nil
}

// ExpressionListCST returns the cleaned concrete syntax tree of an
// expression list. The root is an ExpList.
func (p *Parser) ExpressionListCST(src string) (*cst.Node, error) {
	stripped, err := StripComments(src)
	if err != nil {
		return nil, err
	}
	root, err := p.grammar.ParseExpressionList(stripped)
	if err != nil {
		return nil, locate(err, src)
	}
	return cst.Clean(root), nil
}

// Lower lowers a Chunk CST produced by any grammar engine. The tree is
// cleaned first, so raw trees with whitespace leaves are accepted.
func Lower(root *cst.Node, ctx ast.Context) (*ast.Block, error) {
	l := &lowerer{ambient: ctx}
	return l.lowerChunk(cst.Clean(root))
}

// LowerExpression lowers an expression CST.
func LowerExpression(root *cst.Node, ctx ast.Context) (ast.Expression, error) {
	if root == nil {
		return nil, NewStructuralMismatchError(nil, "expression")
	}
	l := &lowerer{ambient: ctx}
	return l.lowerExpression(cst.Clean(root))
}

// LowerExpressionList lowers an ExpList CST.
func LowerExpressionList(root *cst.Node, ctx ast.Context) ([]ast.Expression, error) {
	if root == nil {
		return nil, NewStructuralMismatchError(nil, "ExpList")
	}
	l := &lowerer{ambient: ctx}
	return l.lowerExpList(cst.Clean(root))
}
