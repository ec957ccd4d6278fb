package grammar

import (
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// Statement parsing.
//
//	block → {stat} [retstat]
//
// Statement node shapes (children in order, whitespace leaves omitted):
//
//	Semicolon       ;
//	Label           :: Name ::
//	Break           break
//	Goto            goto Name
//	Scope           do Block end
//	WhileStatement  while exp do Block end
//	RepeatStatement repeat Block until exp
//	IfStatement     if exp then Block {elseif exp then Block} [else Block] end
//	ForStatement    for (ForNumeric | ForGeneric) do Block end
//	Function        function FuncName FuncBody
//	LocalFunction   local function Name FuncBody
//	Local           local AttNameList [= ExpList]
//	Assign          VarList = ExpList
//	ReturnStatement return [ExpList] [;]

// blockFollow reports whether the current token ends a block.
func (p *Parser) blockFollow() bool {
	switch p.token.Type {
	case token.EOF, token.ELSE, token.ELSEIF, token.END, token.UNTIL:
		return true
	}
	return false
}

func (p *Parser) parseBlock() *cst.Node {
	start := p.lastEnd
	var stmts []*cst.Node
	for p.err == nil && !p.blockFollow() {
		if p.check(token.RETURN) {
			stmts = append(stmts, p.parseReturn())
			break
		}
		stmts = append(stmts, p.parseStatement())
	}
	if len(stmts) == 0 {
		return cst.NewNode("Block", start)
	}
	return p.node("Block", stmts...)
}

func (p *Parser) parseStatement() *cst.Node {
	switch p.token.Type {
	case token.SEMICOLON:
		return p.node("Semicolon", p.advance())
	case token.DCOLON:
		open := p.advance()
		name := p.expectName()
		return p.node("Label", open, name, p.expect(token.DCOLON))
	case token.BREAK:
		return p.node("Break", p.advance())
	case token.GOTO:
		kw := p.advance()
		return p.node("Goto", kw, p.expectName())
	case token.DO:
		kw := p.advance()
		block := p.parseBlock()
		return p.node("Scope", kw, block, p.expect(token.END))
	case token.WHILE:
		return p.parseWhile()
	case token.REPEAT:
		return p.parseRepeat()
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.FUNCTION:
		kw := p.advance()
		name := p.parseFuncName()
		return p.node("Function", kw, name, p.parseFuncBody())
	case token.LOCAL:
		if p.checkPeek(token.FUNCTION) {
			return p.parseLocalFunction()
		}
		return p.parseLocal()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseWhile() *cst.Node {
	kw := p.advance()
	cond := p.parseExp()
	do := p.expect(token.DO)
	block := p.parseBlock()
	return p.node("WhileStatement", kw, cond, do, block, p.expect(token.END))
}

func (p *Parser) parseRepeat() *cst.Node {
	kw := p.advance()
	block := p.parseBlock()
	until := p.expect(token.UNTIL)
	return p.node("RepeatStatement", kw, block, until, p.parseExp())
}

// parseIf lays clauses out in groups of four children (keyword, condition,
// then, block) so consumers can walk them with a fixed stride.
func (p *Parser) parseIf() *cst.Node {
	children := []*cst.Node{p.advance()}
	children = append(children, p.parseExp(), p.expect(token.THEN), p.parseBlock())
	for p.err == nil && p.check(token.ELSEIF) {
		kw := p.advance()
		cond := p.parseExp()
		then := p.expect(token.THEN)
		children = append(children, kw, cond, then, p.parseBlock())
	}
	if p.err == nil && p.check(token.ELSE) {
		kw := p.advance()
		children = append(children, kw, p.parseBlock())
	}
	children = append(children, p.expect(token.END))
	return p.node("IfStatement", children...)
}

func (p *Parser) parseFor() *cst.Node {
	kw := p.advance()

	var head *cst.Node
	if p.check(token.NAME) && p.checkPeek(token.ASSIGN) {
		name := p.advance()
		eq := p.advance()
		start := p.parseExp()
		comma := p.expect(token.COMMA)
		limit := p.parseExp()
		parts := []*cst.Node{name, eq, start, comma, limit}
		if p.err == nil && p.check(token.COMMA) {
			comma := p.advance()
			parts = append(parts, comma, p.parseExp())
		}
		head = p.node("ForNumeric", parts...)
	} else {
		names := p.parseNameList()
		in := p.expect(token.IN)
		head = p.node("ForGeneric", names, in, p.parseExpList())
	}

	do := p.expect(token.DO)
	block := p.parseBlock()
	return p.node("ForStatement", kw, head, do, block, p.expect(token.END))
}

func (p *Parser) parseNameList() *cst.Node {
	names := []*cst.Node{p.expectName()}
	for p.err == nil && p.check(token.COMMA) {
		comma := p.advance()
		names = append(names, comma, p.expectName())
	}
	return p.node("NameList", names...)
}

// parseFuncName parses Name {'.' Name} [':' Name].
func (p *Parser) parseFuncName() *cst.Node {
	parts := []*cst.Node{p.expectName()}
	for p.err == nil && p.check(token.DOT) {
		dot := p.advance()
		parts = append(parts, dot, p.expectName())
	}
	if p.err == nil && p.check(token.COLON) {
		colon := p.advance()
		parts = append(parts, colon, p.expectName())
	}
	return p.node("FuncName", parts...)
}

// parseFuncBody parses '(' [parlist] ')' block end.
func (p *Parser) parseFuncBody() *cst.Node {
	open := p.expect(token.LPAREN)

	var params []*cst.Node
	if !p.check(token.RPAREN) {
		for p.err == nil {
			if p.check(token.ELLIPSIS) {
				params = append(params, p.advance())
				break
			}
			params = append(params, p.expectName())
			if !p.check(token.COMMA) {
				break
			}
			params = append(params, p.advance())
		}
	}
	paramList := p.node("ParamList", params...)

	closeParen := p.expect(token.RPAREN)
	block := p.parseBlock()
	return p.node("FuncBody", open, paramList, closeParen, block, p.expect(token.END))
}

func (p *Parser) parseLocalFunction() *cst.Node {
	local := p.advance()
	fn := p.advance()
	name := p.expectName()
	return p.node("LocalFunction", local, fn, name, p.parseFuncBody())
}

func (p *Parser) parseLocal() *cst.Node {
	local := p.advance()

	names := []*cst.Node{p.parseAttName()}
	for p.err == nil && p.check(token.COMMA) {
		comma := p.advance()
		names = append(names, comma, p.parseAttName())
	}
	children := []*cst.Node{local, p.node("AttNameList", names...)}

	if p.err == nil && p.check(token.ASSIGN) {
		eq := p.advance()
		children = append(children, eq, p.parseExpList())
	}
	return p.node("Local", children...)
}

// parseAttName parses Name Attrib, where Attrib is empty or '<' Name '>'.
// The Attrib node is always present.
func (p *Parser) parseAttName() *cst.Node {
	name := p.expectName()
	attrib := cst.NewNode("Attrib", name.To)
	if p.err == nil && p.check(token.LT) {
		lt := p.advance()
		attr := p.expectName()
		attrib = p.node("Attrib", lt, attr, p.expect(token.GT))
	}
	return p.node("AttName", name, attrib)
}

func (p *Parser) parseReturn() *cst.Node {
	children := []*cst.Node{p.advance()}
	if !p.blockFollow() && !p.check(token.SEMICOLON) {
		children = append(children, p.parseExpList())
	}
	if p.err == nil && p.check(token.SEMICOLON) {
		children = append(children, p.advance())
	}
	return p.node("ReturnStatement", children...)
}

// parseExprStatement parses an assignment or a call statement.
func (p *Parser) parseExprStatement() *cst.Node {
	first := p.parseSuffixedExp()
	if p.err != nil {
		return first
	}

	if p.check(token.ASSIGN) || p.check(token.COMMA) {
		vars := []*cst.Node{p.checkAssignable(first)}
		for p.err == nil && p.check(token.COMMA) {
			comma := p.advance()
			vars = append(vars, comma, p.checkAssignable(p.parseSuffixedExp()))
		}
		varList := p.node("VarList", vars...)
		eq := p.expect(token.ASSIGN)
		return p.node("Assign", varList, eq, p.parseExpList())
	}

	if first.Type != "FunctionCall" {
		return p.fail(fmt.Sprintf(ErrNotCallable, first.SourceText()))
	}
	return first
}

func (p *Parser) checkAssignable(n *cst.Node) *cst.Node {
	switch n.Type {
	case "Name", "Property", "MemberExpression", errorNodeType:
		return n
	}
	p.fail(fmt.Sprintf("cannot assign to %s", n.SourceText()))
	return n
}
