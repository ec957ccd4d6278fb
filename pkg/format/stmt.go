package format

import (
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// formatStatements prints each statement of b on its own line at the
// current depth.
func (p *printer) formatStatements(b *ast.Block) {
	if b == nil {
		return
	}
	for _, stmt := range b.Statements {
		if p.comments != nil {
			p.commentLines(p.comments.leading[stmt])
		}
		p.formatStmt(stmt)
		if p.comments != nil {
			p.trailingComments(p.comments.trailing[stmt])
		}
		p.writeln()
	}
}

// formatBody prints an indented block followed by the closing keyword.
// An empty block closes on the same line.
func (p *printer) formatBody(b *ast.Block, closing token.TokenType) {
	if b == nil || len(b.Statements) == 0 {
		p.space()
		p.kw(closing)
		return
	}
	p.writeln()
	p.indent()
	p.formatStatements(b)
	p.dedent()
	p.kw(closing)
}

func (p *printer) formatStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Semicolon:
		p.kw(token.SEMICOLON)
	case *ast.Label:
		p.write("::" + s.Name + "::")
	case *ast.Break:
		p.kw(token.BREAK)
	case *ast.Goto:
		p.kw(token.GOTO)
		p.space()
		p.write(s.Name)
	case *ast.Block:
		p.kw(token.DO)
		p.formatBody(s, token.END)
	case *ast.While:
		p.kw(token.WHILE)
		p.space()
		p.formatExpr(s.Condition)
		p.space()
		p.kw(token.DO)
		p.formatBody(s.Block, token.END)
	case *ast.Repeat:
		p.kw(token.REPEAT)
		p.formatBody(s.Block, token.UNTIL)
		p.space()
		p.formatExpr(s.Condition)
	case *ast.If:
		p.formatIf(s)
	case *ast.For:
		p.kw(token.FOR)
		p.space()
		p.write(s.Name + " = ")
		p.formatExpr(s.Start)
		p.write(", ")
		p.formatExpr(s.End)
		if s.Step != nil {
			p.write(", ")
			p.formatExpr(s.Step)
		}
		p.space()
		p.kw(token.DO)
		p.formatBody(s.Block, token.END)
	case *ast.ForIn:
		p.kw(token.FOR)
		p.space()
		p.write(strings.Join(s.Names, ", "))
		p.space()
		p.kw(token.IN)
		p.space()
		p.formatExprList(s.Expressions)
		p.space()
		p.kw(token.DO)
		p.formatBody(s.Block, token.END)
	case *ast.Function:
		p.kw(token.FUNCTION)
		p.space()
		p.formatFunctionName(s.Name)
		p.formatFunctionBody(s.Body)
	case *ast.LocalFunction:
		p.kw(token.LOCAL, token.FUNCTION)
		p.space()
		p.write(s.Name)
		p.formatFunctionBody(s.Body)
	case *ast.FunctionCallStatement:
		p.formatExpr(s.Call)
	case *ast.Assignment:
		p.each(len(s.Variables), func(i int) {
			p.formatExpr(s.Variables[i])
		}, ", ")
		p.write(" = ")
		p.formatExprList(s.Expressions)
	case *ast.Local:
		p.kw(token.LOCAL)
		p.space()
		p.each(len(s.Names), func(i int) {
			p.write(s.Names[i].Name)
			if s.Names[i].Attribute != "" {
				p.write(" <" + s.Names[i].Attribute + ">")
			}
		}, ", ")
		if len(s.Expressions) > 0 {
			p.write(" = ")
			p.formatExprList(s.Expressions)
		}
	case *ast.Return:
		p.kw(token.RETURN)
		if len(s.Expressions) > 0 {
			p.space()
			p.formatExprList(s.Expressions)
		}
	}
}

func (p *printer) formatIf(s *ast.If) {
	for i, c := range s.Conditions {
		if i == 0 {
			p.kw(token.IF)
		} else {
			p.kw(token.ELSEIF)
		}
		p.space()
		p.formatExpr(c.Condition)
		p.space()
		p.kw(token.THEN)
		p.formatClause(c.Block)
	}
	if s.ElseBlock != nil {
		p.kw(token.ELSE)
		p.formatClause(s.ElseBlock)
	}
	p.kw(token.END)
}

// formatClause prints an if arm body; the next keyword starts a new line.
func (p *printer) formatClause(b *ast.Block) {
	p.writeln()
	p.indent()
	p.formatStatements(b)
	p.dedent()
}

func (p *printer) formatFunctionName(n *ast.FunctionName) {
	p.write(strings.Join(n.PropNames, "."))
	if n.ColonName != "" {
		p.write(":" + n.ColonName)
	}
}

func (p *printer) formatFunctionBody(b *ast.FunctionBody) {
	p.write("(" + strings.Join(b.Parameters, ", ") + ")")
	p.formatBody(b.Block, token.END)
}
