package eval

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// eval evaluates expr to exactly one value.
func (e *Evaluator) eval(ctx context.Context, expr ast.Expression, env *Env, sf *CallFrame) (Value, error) {
	switch x := expr.(type) {
	case *ast.String:
		return decodeEscapes(x.Value), nil
	case *ast.Number:
		return x.Value, nil
	case *ast.Boolean:
		return x.Value, nil
	case *ast.Nil:
		return nil, nil
	case *ast.Variable:
		if x.Name == "..." {
			values, err := e.evalMulti(ctx, x, env, sf)
			if err != nil || len(values) == 0 {
				return nil, err
			}
			return values[0], nil
		}
		v, _ := env.Get(x.Name)
		return v, nil
	case *ast.Binary:
		return e.evalBinary(ctx, x, env, sf)
	case *ast.Unary:
		arg, err := e.eval(ctx, x.Argument, env, sf)
		if err != nil {
			return nil, err
		}
		v, err := unaryOp(x.Operator, arg)
		if err != nil {
			return nil, runtimeError(err, x.Ctx, sf)
		}
		return v, nil
	case *ast.PropertyAccess:
		obj, err := e.eval(ctx, x.Object, env, sf)
		if err != nil {
			return nil, err
		}
		return e.index(obj, x.Property, env, x.Ctx, sf)
	case *ast.TableAccess:
		obj, err := e.eval(ctx, x.Object, env, sf)
		if err != nil {
			return nil, err
		}
		key, err := e.eval(ctx, x.Key, env, sf)
		if err != nil {
			return nil, err
		}
		return e.index(obj, key, env, x.Ctx, sf)
	case *ast.Parenthesized:
		return e.eval(ctx, x.Expression, env, sf)
	case *ast.FunctionCall:
		values, err := e.evalCall(ctx, x, env, sf)
		if err != nil || len(values) == 0 {
			return nil, err
		}
		return values[0], nil
	case *ast.FunctionDefinition:
		return &Closure{Body: x.Body, Env: env}, nil
	case *ast.TableConstructor:
		return e.evalTable(ctx, x, env, sf)
	default:
		return nil, runtimeError(fmt.Errorf("unsupported expression %T", expr), expr.Span(), sf)
	}
}

// evalMulti evaluates expr keeping every value of a call or "...".
func (e *Evaluator) evalMulti(ctx context.Context, expr ast.Expression, env *Env, sf *CallFrame) ([]Value, error) {
	switch x := expr.(type) {
	case *ast.FunctionCall:
		return e.evalCall(ctx, x, env, sf)
	case *ast.Variable:
		if x.Name == "..." {
			values, ok := env.varargs()
			if !ok {
				return nil, runtimeError(fmt.Errorf("cannot use '...' outside a vararg function"), x.Ctx, sf)
			}
			return values, nil
		}
	}
	v, err := e.eval(ctx, expr, env, sf)
	if err != nil {
		return nil, err
	}
	return []Value{v}, nil
}

// evalList evaluates exprs, expanding only the last one.
func (e *Evaluator) evalList(ctx context.Context, exprs []ast.Expression, env *Env, sf *CallFrame) ([]Value, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]Value, 0, len(exprs))
	for _, expr := range exprs[:len(exprs)-1] {
		v, err := e.eval(ctx, expr, env, sf)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	last, err := e.evalMulti(ctx, exprs[len(exprs)-1], env, sf)
	if err != nil {
		return nil, err
	}
	return append(out, last...), nil
}

func (e *Evaluator) evalBinary(ctx context.Context, x *ast.Binary, env *Env, sf *CallFrame) (Value, error) {
	left, err := e.eval(ctx, x.Left, env, sf)
	if err != nil {
		return nil, err
	}
	switch x.Operator {
	case "and":
		if !Truthy(left) {
			return left, nil
		}
		return e.eval(ctx, x.Right, env, sf)
	case "or":
		if Truthy(left) {
			return left, nil
		}
		return e.eval(ctx, x.Right, env, sf)
	}

	right, err := e.eval(ctx, x.Right, env, sf)
	if err != nil {
		return nil, err
	}
	v, err := binaryOp(x.Operator, left, right)
	if err != nil {
		return nil, runtimeError(err, x.Ctx, sf)
	}
	return v, nil
}

// index reads obj[key]. Strings index the global string library so that
// method calls like s:upper() work.
func (e *Evaluator) index(obj, key Value, env *Env, at ast.Ctx, sf *CallFrame) (Value, error) {
	switch o := obj.(type) {
	case *Table:
		return o.Get(key), nil
	case string:
		if lib, ok := env.Root().vars["string"]; ok {
			if t, ok := lib.value.(*Table); ok {
				return t.Get(key), nil
			}
		}
		return nil, nil
	}
	if name, ok := key.(string); ok {
		return nil, runtimeError(fmt.Errorf("attempt to index a %s value (field '%s')", TypeName(obj), name), at, sf)
	}
	return nil, runtimeError(fmt.Errorf("attempt to index a %s value", TypeName(obj)), at, sf)
}

func (e *Evaluator) evalCall(ctx context.Context, c *ast.FunctionCall, env *Env, sf *CallFrame) ([]Value, error) {
	fn, err := e.eval(ctx, c.Prefix, env, sf)
	if err != nil {
		return nil, err
	}

	var args []Value
	if c.Name != "" {
		self := fn
		if fn, err = e.index(self, c.Name, env, c.Ctx, sf); err != nil {
			return nil, err
		}
		args = append(args, self)
	}
	rest, err := e.evalList(ctx, c.Args, env, sf)
	if err != nil {
		return nil, err
	}
	return e.call(ctx, fn, append(args, rest...), c.Ctx, sf)
}

func (e *Evaluator) evalTable(ctx context.Context, x *ast.TableConstructor, env *Env, sf *CallFrame) (Value, error) {
	t := NewTable()
	next := 1
	for i, field := range x.Fields {
		switch f := field.(type) {
		case *ast.ExpressionField:
			values := []Value{nil}
			var err error
			if i == len(x.Fields)-1 {
				values, err = e.evalMulti(ctx, f.Value, env, sf)
			} else {
				values[0], err = e.eval(ctx, f.Value, env, sf)
			}
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				_ = t.Set(float64(next), v)
				next++
			}
		case *ast.PropField:
			v, err := e.eval(ctx, f.Value, env, sf)
			if err != nil {
				return nil, err
			}
			t.SetField(f.Key, v)
		case *ast.DynamicField:
			k, err := e.eval(ctx, f.Key, env, sf)
			if err != nil {
				return nil, err
			}
			v, err := e.eval(ctx, f.Value, env, sf)
			if err != nil {
				return nil, err
			}
			if err := t.Set(k, v); err != nil {
				return nil, runtimeError(err, f.Ctx, sf)
			}
		}
	}
	return t, nil
}
