package grammar

import (
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// errorNodeType marks the place where parsing stopped.
const errorNodeType = "⚠"

// Parser builds a CST from a token stream.
type Parser struct {
	src     string
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	lastEnd int         // end offset of the last consumed token
	err     error
}

// NewParser creates a new parser for the given input.
func NewParser(src string) *Parser {
	p := &Parser{
		src:   src,
		lexer: NewLexer(src),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	p.lastEnd = 0
	return p
}

// Err returns the first error encountered.
func (p *Parser) Err() error {
	return p.err
}

// ParseChunk parses the whole input as a chunk.
func (p *Parser) ParseChunk() *cst.Node {
	block := p.parseBlock()
	if !p.check(token.EOF) {
		p.unexpected("end of input")
	}

	children := make([]*cst.Node, 0, 3)
	if block.From > 0 {
		children = append(children, cst.NewLeaf(p.src[:block.From], 0))
	}
	children = append(children, block)
	if block.To < len(p.src) {
		children = append(children, cst.NewLeaf(p.src[block.To:], block.To))
	}
	return &cst.Node{Type: "Chunk", From: 0, To: len(p.src), Children: children}
}

// ParseExpression parses the whole input as one expression.
func (p *Parser) ParseExpression() *cst.Node {
	exp := p.parseExp()
	if p.err == nil && !p.check(token.EOF) {
		p.fail(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}
	return exp
}

// ParseExpressionList parses the whole input as a comma-separated list of
// expressions, the position of a return statement's values.
func (p *Parser) ParseExpressionList() *cst.Node {
	list := p.parseExpList()
	if p.err == nil && !p.check(token.EOF) {
		p.fail(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}
	return list
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.lastEnd = p.token.End
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// advance turns the current token into a CST token node and moves on.
func (p *Parser) advance() *cst.Node {
	return p.advanceAs(nodeType(p.token.Type))
}

// advanceAs is advance with an explicit node type, used for operator classes.
func (p *Parser) advanceAs(typ string) *cst.Node {
	n := cst.NewToken(typ, p.token.Literal, p.token.Pos.Offset)
	p.nextToken()
	return n
}

// expect consumes the current token if it matches, otherwise records an error.
func (p *Parser) expect(t token.TokenType) *cst.Node {
	if !p.check(t) {
		return p.unexpected(fmt.Sprintf("'%s'", t))
	}
	return p.advance()
}

func (p *Parser) expectName() *cst.Node {
	if !p.check(token.NAME) {
		return p.unexpected("name")
	}
	return p.advance()
}

func (p *Parser) unexpected(expected string) *cst.Node {
	return p.fail(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), expected))
}

// fail records the first error and returns a zero-width error node so
// callers can keep building a well-formed tree while unwinding.
func (p *Parser) fail(msg string) *cst.Node {
	if p.err == nil {
		if p.token.Type == token.ILLEGAL && p.lexer.Err() != nil {
			p.err = p.lexer.Err()
		} else {
			p.err = &SyntaxError{Pos: p.token.Pos, Message: msg}
		}
	}
	return cst.NewNode(errorNodeType, p.token.Pos.Offset)
}

// node builds an interior node, inserting the source between consecutive
// children as untyped text leaves.
func (p *Parser) node(typ string, children ...*cst.Node) *cst.Node {
	if len(children) == 0 {
		return cst.NewNode(typ, p.lastEnd)
	}
	filled := make([]*cst.Node, 0, 2*len(children))
	for i, c := range children {
		if i > 0 {
			prev := children[i-1]
			if c.From > prev.To {
				filled = append(filled, cst.NewLeaf(p.src[prev.To:c.From], prev.To))
			}
		}
		filled = append(filled, c)
	}
	return cst.NewNode(typ, 0, filled...)
}

// nodeType maps a token to the CST node type the lowering expects.
func nodeType(t token.TokenType) string {
	switch t {
	case token.NAME:
		return "Name"
	case token.NUMBER:
		return "Number"
	case token.STRING:
		return "LiteralString"
	case token.ELLIPSIS:
		return "Ellipsis"
	default:
		return t.String()
	}
}

func describe(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of input"
	case token.ILLEGAL:
		return "invalid token"
	default:
		return fmt.Sprintf("'%s'", t.Literal)
	}
}
