package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// binaryPrecedence mirrors the grammar's left priorities. Right-associative
// operators are listed in rightAssoc.
var binaryPrecedence = map[string]int{
	"or":  1,
	"and": 2,
	"<":   3,
	">":   3,
	"<=":  3,
	">=":  3,
	"~=":  3,
	"==":  3,
	"|":   4,
	"~":   5,
	"&":   6,
	"<<":  7,
	">>":  7,
	"..":  9,
	"+":   10,
	"-":   10,
	"*":   11,
	"/":   11,
	"//":  11,
	"%":   11,
	"^":   14,
}

var rightAssoc = map[string]bool{"..": true, "^": true}

const unaryPrecedence = 12

// precedence of an expression as an operand; atoms bind tightest.
func precedence(e ast.Expression) int {
	switch e := e.(type) {
	case *ast.Binary:
		return binaryPrecedence[e.Operator]
	case *ast.Unary:
		return unaryPrecedence
	}
	return math.MaxInt
}

func (p *printer) formatExpr(e ast.Expression) {
	switch e := e.(type) {
	case *ast.String:
		p.write(quote(e.Value))
	case *ast.Number:
		p.write(formatNumber(e.Value))
	case *ast.Boolean:
		p.write(strconv.FormatBool(e.Value))
	case *ast.Nil:
		p.write("nil")
	case *ast.Variable:
		p.write(e.Name)
	case *ast.Binary:
		p.formatBinary(e)
	case *ast.Unary:
		p.write(e.Operator)
		if e.Operator == "not" {
			p.space()
		}
		// keep "- -x" from printing as a comment
		if u, ok := e.Argument.(*ast.Unary); ok && e.Operator == "-" && u.Operator == "-" {
			p.space()
		}
		p.formatOperand(e.Argument, precedence(e.Argument) < unaryPrecedence)
	case *ast.PropertyAccess:
		p.formatExpr(e.Object)
		p.write("." + e.Property)
	case *ast.TableAccess:
		p.formatExpr(e.Object)
		p.write("[")
		p.formatExpr(e.Key)
		p.write("]")
	case *ast.Parenthesized:
		p.write("(")
		p.formatExpr(e.Expression)
		p.write(")")
	case *ast.FunctionCall:
		p.formatExpr(e.Prefix)
		if e.Name != "" {
			p.write(":" + e.Name)
		}
		p.write("(")
		p.formatExprList(e.Args)
		p.write(")")
	case *ast.FunctionDefinition:
		p.write("function")
		p.formatFunctionBody(e.Body)
	case *ast.TableConstructor:
		p.formatTable(e)
	}
}

func (p *printer) formatBinary(e *ast.Binary) {
	prec := binaryPrecedence[e.Operator]
	left, right := precedence(e.Left), precedence(e.Right)

	p.formatOperand(e.Left, left < prec || (left == prec && rightAssoc[e.Operator]))
	p.write(" " + e.Operator + " ")
	// a prefix operator on the right never needs parentheses
	_, unary := e.Right.(*ast.Unary)
	p.formatOperand(e.Right, !unary && (right < prec || (right == prec && !rightAssoc[e.Operator])))
}

// formatOperand prints e, wrapped in parentheses when the tree shape needs
// them to survive a re-parse.
func (p *printer) formatOperand(e ast.Expression, parens bool) {
	if parens {
		p.write("(")
	}
	p.formatExpr(e)
	if parens {
		p.write(")")
	}
}

func (p *printer) formatExprList(es []ast.Expression) {
	p.each(len(es), func(i int) {
		p.formatExpr(es[i])
	}, ", ")
}

func (p *printer) formatTable(t *ast.TableConstructor) {
	if len(t.Fields) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.each(len(t.Fields), func(i int) {
		switch f := t.Fields[i].(type) {
		case *ast.ExpressionField:
			p.formatExpr(f.Value)
		case *ast.PropField:
			p.write(f.Key + " = ")
			p.formatExpr(f.Value)
		case *ast.DynamicField:
			p.write("[")
			p.formatExpr(f.Key)
			p.write("] = ")
			p.formatExpr(f.Value)
		}
	}, ", ")
	p.write("}")
}

// quote wraps a raw string value in delimiters that do not clash with its
// content. Escape sequences in the value are kept as written.
func quote(s string) string {
	switch {
	case strings.ContainsAny(s, "\n\r"):
		return longBracket(s)
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	}
	return longBracket(s)
}

func longBracket(s string) string {
	level := ""
	for strings.Contains(s, "]"+level+"]") {
		level += "="
	}
	open, closing := "["+level+"[", "]"+level+"]"
	if strings.HasPrefix(s, "\n") {
		// the first newline after the opening bracket is skipped on parse
		return open + "\n" + s + closing
	}
	return open + s + closing
}

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "math.huge"
	case math.IsInf(v, -1):
		return "-math.huge"
	case math.IsNaN(v):
		return "(0 / 0)"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
