package grammar

import (
	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// Expression parsing uses priority climbing with separate left and right
// priorities per binary operator, as in the Lua reference implementation.
// A right priority lower than the left one makes the operator
// right-associative (.. and ^).
//
//	or          1
//	and         2
//	comparison  3   (< > <= >= ~= ==)
//	|           4
//	~           5
//	&           6
//	shift       7   (<< >>)
//	..          9/8 (right)
//	+ -         10
//	* / // %    11
//	unary       12  (not # - ~)
//	^           14/13 (right)

type binaryPriority struct {
	left, right int
}

var binaryPriorities = map[token.TokenType]binaryPriority{
	token.OR:      {1, 1},
	token.AND:     {2, 2},
	token.LT:      {3, 3},
	token.GT:      {3, 3},
	token.LE:      {3, 3},
	token.GE:      {3, 3},
	token.NE:      {3, 3},
	token.EQ:      {3, 3},
	token.PIPE:    {4, 4},
	token.TILDE:   {5, 5},
	token.AMP:     {6, 6},
	token.SHL:     {7, 7},
	token.SHR:     {7, 7},
	token.CONCAT:  {9, 8},
	token.PLUS:    {10, 10},
	token.MINUS:   {10, 10},
	token.STAR:    {11, 11},
	token.SLASH:   {11, 11},
	token.DSLASH:  {11, 11},
	token.PERCENT: {11, 11},
	token.CARET:   {14, 13},
}

const unaryPriority = 12

// operatorClass returns the CST node type used for an operator token.
// Keyword operators keep their keyword as type.
func operatorClass(t token.TokenType) string {
	switch t {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.DSLASH, token.PERCENT, token.CARET:
		return "ArithOp"
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		return "CompareOp"
	case token.AMP, token.PIPE, token.TILDE, token.SHL, token.SHR:
		return "BitOp"
	case token.CONCAT:
		return "ConcatOp"
	case token.HASH:
		return "LenOp"
	default:
		return t.String()
	}
}

func isUnaryOp(t token.TokenType) bool {
	switch t {
	case token.NOT, token.MINUS, token.HASH, token.TILDE:
		return true
	}
	return false
}

// parseExp parses an expression.
func (p *Parser) parseExp() *cst.Node {
	return p.parseSubExp(0)
}

// parseSubExp parses an expression whose binary operators all bind tighter
// than limit.
func (p *Parser) parseSubExp(limit int) *cst.Node {
	var left *cst.Node
	if isUnaryOp(p.token.Type) {
		op := p.advanceAs(operatorClass(p.token.Type))
		left = p.node("UnaryExpression", op, p.parseSubExp(unaryPriority))
	} else {
		left = p.parseSimpleExp()
	}

	for p.err == nil {
		prio, ok := binaryPriorities[p.token.Type]
		if !ok || prio.left <= limit {
			break
		}
		op := p.advanceAs(operatorClass(p.token.Type))
		right := p.parseSubExp(prio.right)
		left = p.node("BinaryExpression", left, op, right)
	}
	return left
}

// parseSimpleExp parses literals, table constructors, anonymous functions
// and suffixed expressions.
func (p *Parser) parseSimpleExp() *cst.Node {
	switch p.token.Type {
	case token.NUMBER, token.STRING, token.NIL, token.TRUE, token.FALSE, token.ELLIPSIS:
		return p.advance()
	case token.LBRACE:
		return p.parseTable()
	case token.FUNCTION:
		kw := p.advance()
		return p.node("FunctionDef", kw, p.parseFuncBody())
	default:
		return p.parseSuffixedExp()
	}
}

// parsePrimaryExp parses Name | '(' exp ')'.
func (p *Parser) parsePrimaryExp() *cst.Node {
	switch p.token.Type {
	case token.NAME:
		return p.advance()
	case token.LPAREN:
		open := p.advance()
		exp := p.parseExp()
		return p.node("Parens", open, exp, p.expect(token.RPAREN))
	default:
		return p.unexpected("expression")
	}
}

// parseSuffixedExp parses a primary expression followed by any chain of
// field accesses, index accesses and calls. Each suffix wraps the
// expression built so far, so chains nest to the left.
func (p *Parser) parseSuffixedExp() *cst.Node {
	exp := p.parsePrimaryExp()
	for p.err == nil {
		switch p.token.Type {
		case token.DOT:
			dot := p.advance()
			exp = p.node("Property", exp, dot, p.expectName())
		case token.LBRACKET:
			open := p.advance()
			key := p.parseExp()
			exp = p.node("MemberExpression", exp, open, key, p.expect(token.RBRACKET))
		case token.COLON:
			colon := p.advance()
			name := p.expectName()
			children := append([]*cst.Node{exp, colon, name}, p.parseArgs()...)
			exp = p.node("FunctionCall", children...)
		case token.LPAREN, token.LBRACE, token.STRING:
			children := append([]*cst.Node{exp}, p.parseArgs()...)
			exp = p.node("FunctionCall", children...)
		default:
			return exp
		}
	}
	return exp
}

// parseArgs parses call arguments. A parenthesized list is flattened into
// its punctuation and argument nodes; a table or string argument is a
// single node.
func (p *Parser) parseArgs() []*cst.Node {
	switch p.token.Type {
	case token.STRING:
		return []*cst.Node{p.advance()}
	case token.LBRACE:
		return []*cst.Node{p.parseTable()}
	case token.LPAREN:
		args := []*cst.Node{p.advance()}
		if !p.check(token.RPAREN) {
			args = append(args, p.parseExp())
			for p.err == nil && p.check(token.COMMA) {
				comma := p.advance()
				args = append(args, comma, p.parseExp())
			}
		}
		return append(args, p.expect(token.RPAREN))
	default:
		return []*cst.Node{p.unexpected("function arguments")}
	}
}

// parseExpList parses exp {',' exp}.
func (p *Parser) parseExpList() *cst.Node {
	exps := []*cst.Node{p.parseExp()}
	for p.err == nil && p.check(token.COMMA) {
		comma := p.advance()
		exps = append(exps, comma, p.parseExp())
	}
	return p.node("ExpList", exps...)
}

// parseTable parses '{' [field {sep field} [sep]] '}'. Fields and
// separators are direct children of the TableConstructor.
func (p *Parser) parseTable() *cst.Node {
	children := []*cst.Node{p.expect(token.LBRACE)}
	for p.err == nil && !p.check(token.RBRACE) {
		children = append(children, p.parseField())
		if p.check(token.COMMA) || p.check(token.SEMICOLON) {
			children = append(children, p.advance())
			continue
		}
		break
	}
	children = append(children, p.expect(token.RBRACE))
	return p.node("TableConstructor", children...)
}

func (p *Parser) parseField() *cst.Node {
	switch {
	case p.check(token.LBRACKET):
		open := p.advance()
		key := p.parseExp()
		closeBracket := p.expect(token.RBRACKET)
		eq := p.expect(token.ASSIGN)
		return p.node("FieldDynamic", open, key, closeBracket, eq, p.parseExp())
	case p.check(token.NAME) && p.checkPeek(token.ASSIGN):
		name := p.advance()
		eq := p.advance()
		return p.node("FieldProp", name, eq, p.parseExp())
	default:
		return p.node("FieldExp", p.parseExp())
	}
}
