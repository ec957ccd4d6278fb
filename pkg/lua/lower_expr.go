package lua

import (
	"errors"
	"strconv"
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/cst"
)

// ---------- Expressions ----------

func (l *lowerer) lowerExpression(n *cst.Node) (ast.Expression, error) {
	switch n.Type {
	case "LiteralString":
		txt, err := tokenText(n)
		if err != nil {
			return nil, err
		}
		return &ast.String{Ctx: l.ctx(n), Value: stringValue(txt)}, nil
	case "Number":
		txt, err := tokenText(n)
		if err != nil {
			return nil, err
		}
		v, err := numberValue(txt)
		if err != nil {
			return nil, NewStructuralMismatchError(n, "a numeric literal")
		}
		return &ast.Number{Ctx: l.ctx(n), Value: v}, nil
	case "true":
		return &ast.Boolean{Ctx: l.ctx(n), Value: true}, nil
	case "false":
		return &ast.Boolean{Ctx: l.ctx(n), Value: false}, nil
	case "nil":
		return &ast.Nil{Ctx: l.ctx(n)}, nil
	case "Ellipsis":
		return &ast.Variable{Ctx: l.ctx(n), Name: "..."}, nil
	case "BinaryExpression":
		return l.lowerBinary(n)
	case "UnaryExpression":
		return l.lowerUnary(n)
	case "TableConstructor":
		return l.lowerTable(n)
	case "FunctionDef":
		body, err := l.bodyAt(n, 1)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDefinition{Ctx: l.ctx(n), Body: body}, nil
	case "Name", "Property", "MemberExpression", "Parens", "FunctionCall":
		return l.lowerPrefixExpression(n)
	default:
		return nil, NewStructuralMismatchError(n, "expression")
	}
}

// lowerBinary: left op right. The operator is the token text, not the class.
func (l *lowerer) lowerBinary(n *cst.Node) (ast.Expression, error) {
	opNode, err := child(n, 1)
	if err != nil {
		return nil, err
	}
	op, err := tokenText(opNode)
	if err != nil {
		return nil, err
	}
	left, err := l.expressionAt(n, 0)
	if err != nil {
		return nil, err
	}
	right, err := l.expressionAt(n, 2)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Ctx: l.ctx(n), Operator: op, Left: left, Right: right}, nil
}

// lowerUnary: op operand.
func (l *lowerer) lowerUnary(n *cst.Node) (ast.Expression, error) {
	opNode, err := child(n, 0)
	if err != nil {
		return nil, err
	}
	op, err := tokenText(opNode)
	if err != nil {
		return nil, err
	}
	arg, err := l.expressionAt(n, 1)
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Ctx: l.ctx(n), Operator: op, Argument: arg}, nil
}

// ---------- Prefix expressions and lvalues ----------

func (l *lowerer) lowerPrefixExpression(n *cst.Node) (ast.PrefixExpression, error) {
	switch n.Type {
	case "Name":
		name, err := tokenText(n)
		if err != nil {
			return nil, err
		}
		return &ast.Variable{Ctx: l.ctx(n), Name: name}, nil
	case "Property":
		object, err := l.prefixAt(n, 0)
		if err != nil {
			return nil, err
		}
		prop, err := nameAt(n, 2)
		if err != nil {
			return nil, err
		}
		return &ast.PropertyAccess{Ctx: l.ctx(n), Object: object, Property: prop}, nil
	case "MemberExpression":
		object, err := l.prefixAt(n, 0)
		if err != nil {
			return nil, err
		}
		key, err := l.expressionAt(n, 2)
		if err != nil {
			return nil, err
		}
		return &ast.TableAccess{Ctx: l.ctx(n), Object: object, Key: key}, nil
	case "Parens":
		inner, err := l.expressionAt(n, 1)
		if err != nil {
			return nil, err
		}
		return &ast.Parenthesized{Ctx: l.ctx(n), Expression: inner}, nil
	case "FunctionCall":
		return l.lowerFunctionCall(n)
	default:
		return nil, NewStructuralMismatchError(n, "prefix expression")
	}
}

func (l *lowerer) prefixAt(n *cst.Node, i int) (ast.PrefixExpression, error) {
	c, err := child(n, i)
	if err != nil {
		return nil, err
	}
	return l.lowerPrefixExpression(c)
}

// lowerLValue accepts the assignable subset of prefix expressions.
func (l *lowerer) lowerLValue(n *cst.Node) (ast.LValue, error) {
	if err := expectType(n, "Name", "Property", "MemberExpression"); err != nil {
		return nil, err
	}
	p, err := l.lowerPrefixExpression(n)
	if err != nil {
		return nil, err
	}
	lv, ok := p.(ast.LValue)
	if !ok {
		return nil, NewStructuralMismatchError(n, "assignable expression")
	}
	return lv, nil
}

// lowerFunctionCall: prefix [: Name] args. Argument punctuation is dropped.
func (l *lowerer) lowerFunctionCall(n *cst.Node) (*ast.FunctionCall, error) {
	if err := expectType(n, "FunctionCall"); err != nil {
		return nil, err
	}
	prefix, err := l.prefixAt(n, 0)
	if err != nil {
		return nil, err
	}

	call := &ast.FunctionCall{Ctx: l.ctx(n), Prefix: prefix}
	rest := n.Children[1:]
	if sep := n.Child(1); sep != nil && sep.Type == ":" {
		if call.Name, err = nameAt(n, 2); err != nil {
			return nil, err
		}
		rest = n.Children[3:]
	}

	call.Args = []ast.Expression{}
	for _, c := range rest {
		switch c.Type {
		case ",", "(", ")":
			continue
		}
		arg, err := l.lowerExpression(c)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	return call, nil
}

// ---------- Tables ----------

// lowerTable keeps the recognized field kinds and drops braces and separators.
func (l *lowerer) lowerTable(n *cst.Node) (ast.Expression, error) {
	if _, err := child(n, 0, "{"); err != nil {
		return nil, err
	}
	if _, err := child(n, max(n.Len()-1, 1), "}"); err != nil {
		return nil, err
	}
	fields := []ast.TableField{}
	for _, c := range n.Children[1 : n.Len()-1] {
		var (
			f   ast.TableField
			err error
		)
		switch c.Type {
		case "FieldExp":
			f, err = l.lowerExpressionField(c)
		case "FieldProp":
			f, err = l.lowerPropField(c)
		case "FieldDynamic":
			f, err = l.lowerDynamicField(c)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return &ast.TableConstructor{Ctx: l.ctx(n), Fields: fields}, nil
}

func (l *lowerer) lowerExpressionField(n *cst.Node) (ast.TableField, error) {
	v, err := l.expressionAt(n, 0)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionField{Ctx: l.ctx(n), Value: v}, nil
}

// lowerPropField: Name = exp.
func (l *lowerer) lowerPropField(n *cst.Node) (ast.TableField, error) {
	key, err := nameAt(n, 0)
	if err != nil {
		return nil, err
	}
	v, err := l.expressionAt(n, 2)
	if err != nil {
		return nil, err
	}
	return &ast.PropField{Ctx: l.ctx(n), Key: key, Value: v}, nil
}

// lowerDynamicField: [ exp ] = exp.
func (l *lowerer) lowerDynamicField(n *cst.Node) (ast.TableField, error) {
	key, err := l.expressionAt(n, 1)
	if err != nil {
		return nil, err
	}
	v, err := l.expressionAt(n, 4)
	if err != nil {
		return nil, err
	}
	return &ast.DynamicField{Ctx: l.ctx(n), Key: key, Value: v}, nil
}

// ---------- Literals ----------

// stringValue removes the delimiters of a string literal. Escape sequences
// are kept verbatim. A long bracket also drops a newline directly after the
// opening bracket.
func stringValue(lit string) string {
	if strings.HasPrefix(lit, "[") {
		level := strings.IndexByte(lit[1:], '[')
		if level < 0 || len(lit) < 2*level+4 {
			return lit
		}
		body := lit[level+2 : len(lit)-level-2]
		switch {
		case strings.HasPrefix(body, "\r\n"):
			body = body[2:]
		case strings.HasPrefix(body, "\n"):
			body = body[1:]
		}
		return body
	}
	if len(lit) >= 2 {
		return lit[1 : len(lit)-1]
	}
	return lit
}

// numberValue converts a numeric literal to a float64. Hexadecimal literals
// without a binary exponent are given one so ParseFloat accepts them.
// Out of range values saturate to ±Inf.
func numberValue(lit string) (float64, error) {
	text := lit
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") && !strings.ContainsRune(lower, 'p') {
		text += "p0"
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return v, nil
}
