package eval

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

type signalKind int

const (
	sigNone signalKind = iota
	sigBreak
	sigReturn
	sigGoto
)

// signal carries non-local control flow out of nested statements.
type signal struct {
	kind   signalKind
	values []Value
	label  string
	at     ast.Ctx
}

func (e *Evaluator) execBlock(ctx context.Context, block *ast.Block, env *Env, sf *CallFrame) (signal, error) {
	return e.execStatements(ctx, block.Statements, NewEnv(env), sf)
}

// execStatements runs stmts in env. A goto whose label is in stmts
// continues after the label; any other signal is returned to the caller.
func (e *Evaluator) execStatements(ctx context.Context, stmts []ast.Statement, env *Env, sf *CallFrame) (signal, error) {
	for i := 0; i < len(stmts); i++ {
		sig, err := e.execStatement(ctx, stmts[i], env, sf)
		if err != nil {
			return signal{}, err
		}
		if sig.kind == sigGoto {
			if j := findLabel(stmts, sig.label); j >= 0 {
				if err := e.step(ctx, sig.at, sf); err != nil {
					return signal{}, err
				}
				i = j
				continue
			}
		}
		if sig.kind != sigNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func findLabel(stmts []ast.Statement, name string) int {
	for i, s := range stmts {
		if l, ok := s.(*ast.Label); ok && l.Name == name {
			return i
		}
	}
	return -1
}

func (e *Evaluator) execStatement(ctx context.Context, stmt ast.Statement, env *Env, sf *CallFrame) (signal, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return e.execBlock(ctx, s, env, sf)
	case *ast.Semicolon, *ast.Label:
		return signal{}, nil
	case *ast.Break:
		return signal{kind: sigBreak, at: s.Ctx}, nil
	case *ast.Goto:
		return signal{kind: sigGoto, label: s.Name, at: s.Ctx}, nil
	case *ast.While:
		return e.execWhile(ctx, s, env, sf)
	case *ast.Repeat:
		return e.execRepeat(ctx, s, env, sf)
	case *ast.If:
		for _, clause := range s.Conditions {
			cond, err := e.eval(ctx, clause.Condition, env, sf)
			if err != nil {
				return signal{}, err
			}
			if Truthy(cond) {
				return e.execBlock(ctx, clause.Block, env, sf)
			}
		}
		if s.ElseBlock != nil {
			return e.execBlock(ctx, s.ElseBlock, env, sf)
		}
		return signal{}, nil
	case *ast.For:
		return e.execFor(ctx, s, env, sf)
	case *ast.ForIn:
		return e.execForIn(ctx, s, env, sf)
	case *ast.Function:
		return signal{}, e.execFunction(ctx, s, env, sf)
	case *ast.LocalFunction:
		env.Define(s.Name, &Closure{Name: s.Name, Body: s.Body, Env: env})
		return signal{}, nil
	case *ast.FunctionCallStatement:
		_, err := e.evalCall(ctx, s.Call, env, sf)
		return signal{}, err
	case *ast.Assignment:
		return signal{}, e.execAssignment(ctx, s, env, sf)
	case *ast.Local:
		return signal{}, e.execLocal(ctx, s, env, sf)
	case *ast.Return:
		values, err := e.evalList(ctx, s.Expressions, env, sf)
		if err != nil {
			return signal{}, err
		}
		return signal{kind: sigReturn, values: values, at: s.Ctx}, nil
	default:
		return signal{}, runtimeError(fmt.Errorf("unsupported statement %T", stmt), stmt.Span(), sf)
	}
}

// loopSignal decides what a loop does with the signal of one iteration:
// stop with nothing to propagate, stop and propagate, or continue.
func loopSignal(sig signal) (stop bool, out signal) {
	switch sig.kind {
	case sigBreak:
		return true, signal{}
	case sigNone:
		return false, signal{}
	default:
		return true, sig
	}
}

func (e *Evaluator) execWhile(ctx context.Context, s *ast.While, env *Env, sf *CallFrame) (signal, error) {
	for {
		if err := e.step(ctx, s.Ctx, sf); err != nil {
			return signal{}, err
		}
		cond, err := e.eval(ctx, s.Condition, env, sf)
		if err != nil {
			return signal{}, err
		}
		if !Truthy(cond) {
			return signal{}, nil
		}
		sig, err := e.execBlock(ctx, s.Block, env, sf)
		if err != nil {
			return signal{}, err
		}
		if stop, out := loopSignal(sig); stop {
			return out, nil
		}
	}
}

func (e *Evaluator) execRepeat(ctx context.Context, s *ast.Repeat, env *Env, sf *CallFrame) (signal, error) {
	for {
		if err := e.step(ctx, s.Ctx, sf); err != nil {
			return signal{}, err
		}
		// the condition sees the body's locals
		scope := NewEnv(env)
		sig, err := e.execStatements(ctx, s.Block.Statements, scope, sf)
		if err != nil {
			return signal{}, err
		}
		if stop, out := loopSignal(sig); stop {
			return out, nil
		}
		cond, err := e.eval(ctx, s.Condition, scope, sf)
		if err != nil {
			return signal{}, err
		}
		if Truthy(cond) {
			return signal{}, nil
		}
	}
}

func (e *Evaluator) forNumber(ctx context.Context, expr ast.Expression, what string, env *Env, sf *CallFrame) (float64, error) {
	v, err := e.eval(ctx, expr, env, sf)
	if err != nil {
		return 0, err
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, runtimeError(fmt.Errorf("'for' %s value must be a number", what), expr.Span(), sf)
	}
	return n, nil
}

func (e *Evaluator) execFor(ctx context.Context, s *ast.For, env *Env, sf *CallFrame) (signal, error) {
	start, err := e.forNumber(ctx, s.Start, "initial", env, sf)
	if err != nil {
		return signal{}, err
	}
	limit, err := e.forNumber(ctx, s.End, "limit", env, sf)
	if err != nil {
		return signal{}, err
	}
	step := 1.0
	if s.Step != nil {
		if step, err = e.forNumber(ctx, s.Step, "step", env, sf); err != nil {
			return signal{}, err
		}
	}
	if step == 0 || math.IsNaN(step) {
		return signal{}, runtimeError(fmt.Errorf("'for' step is zero"), s.Ctx, sf)
	}

	for i := start; (step > 0 && i <= limit) || (step < 0 && i >= limit); i += step {
		if err := e.step(ctx, s.Ctx, sf); err != nil {
			return signal{}, err
		}
		scope := NewEnv(env)
		scope.Define(s.Name, i)
		sig, err := e.execStatements(ctx, s.Block.Statements, scope, sf)
		if err != nil {
			return signal{}, err
		}
		if stop, out := loopSignal(sig); stop {
			return out, nil
		}
	}
	return signal{}, nil
}

func (e *Evaluator) execForIn(ctx context.Context, s *ast.ForIn, env *Env, sf *CallFrame) (signal, error) {
	values, err := e.evalList(ctx, s.Expressions, env, sf)
	if err != nil {
		return signal{}, err
	}
	values = adjust(values, 3)
	fn, state, control := values[0], values[1], values[2]

	for {
		if err := e.step(ctx, s.Ctx, sf); err != nil {
			return signal{}, err
		}
		rets, err := e.call(ctx, fn, []Value{state, control}, s.Ctx, sf)
		if err != nil {
			return signal{}, err
		}
		if len(rets) == 0 || rets[0] == nil {
			return signal{}, nil
		}
		control = rets[0]

		scope := NewEnv(env)
		for i, name := range s.Names {
			var v Value
			if i < len(rets) {
				v = rets[i]
			}
			scope.Define(name, v)
		}
		sig, err := e.execStatements(ctx, s.Block.Statements, scope, sf)
		if err != nil {
			return signal{}, err
		}
		if stop, out := loopSignal(sig); stop {
			return out, nil
		}
	}
}

func (e *Evaluator) execFunction(ctx context.Context, s *ast.Function, env *Env, sf *CallFrame) error {
	names := s.Name.PropNames
	body := s.Body
	if s.Name.ColonName != "" {
		method := *s.Body
		method.Parameters = append([]string{"self"}, s.Body.Parameters...)
		body = &method
	}
	fn := &Closure{Name: functionName(s.Name), Body: body, Env: env}

	path, key := names, s.Name.ColonName
	if key == "" {
		if len(names) == 1 {
			return runtimeErrorOrNil(env.Assign(names[0], fn), s.Ctx, sf)
		}
		path, key = names[:len(names)-1], names[len(names)-1]
	}

	target, _ := env.Get(path[0])
	for _, prop := range path[1:] {
		t, ok := target.(*Table)
		if !ok {
			return runtimeError(fmt.Errorf("attempt to index a %s value (field '%s')", TypeName(target), prop), s.Ctx, sf)
		}
		target = t.Get(prop)
	}
	t, ok := target.(*Table)
	if !ok {
		return runtimeError(fmt.Errorf("attempt to index a %s value (field '%s')", TypeName(target), key), s.Ctx, sf)
	}
	t.SetField(key, fn)
	return nil
}

func functionName(n *ast.FunctionName) string {
	name := strings.Join(n.PropNames, ".")
	if n.ColonName != "" {
		name += ":" + n.ColonName
	}
	return name
}

func runtimeErrorOrNil(err error, at ast.Ctx, sf *CallFrame) error {
	if err == nil {
		return nil
	}
	return runtimeError(err, at, sf)
}

// assignTarget is an evaluated assignment destination.
type assignTarget struct {
	name  string
	table *Table
	key   Value
	at    ast.Ctx
}

func (e *Evaluator) evalTarget(ctx context.Context, lv ast.LValue, env *Env, sf *CallFrame) (assignTarget, error) {
	switch v := lv.(type) {
	case *ast.Variable:
		return assignTarget{name: v.Name, at: v.Ctx}, nil
	case *ast.PropertyAccess:
		obj, err := e.eval(ctx, v.Object, env, sf)
		if err != nil {
			return assignTarget{}, err
		}
		t, ok := obj.(*Table)
		if !ok {
			return assignTarget{}, runtimeError(fmt.Errorf("attempt to index a %s value (field '%s')", TypeName(obj), v.Property), v.Ctx, sf)
		}
		return assignTarget{table: t, key: v.Property, at: v.Ctx}, nil
	case *ast.TableAccess:
		obj, err := e.eval(ctx, v.Object, env, sf)
		if err != nil {
			return assignTarget{}, err
		}
		t, ok := obj.(*Table)
		if !ok {
			return assignTarget{}, runtimeError(fmt.Errorf("attempt to index a %s value", TypeName(obj)), v.Ctx, sf)
		}
		key, err := e.eval(ctx, v.Key, env, sf)
		if err != nil {
			return assignTarget{}, err
		}
		return assignTarget{table: t, key: key, at: v.Ctx}, nil
	default:
		return assignTarget{}, runtimeError(fmt.Errorf("cannot assign to %T", lv), lv.Span(), sf)
	}
}

func (e *Evaluator) execAssignment(ctx context.Context, s *ast.Assignment, env *Env, sf *CallFrame) error {
	targets := make([]assignTarget, 0, len(s.Variables))
	for _, lv := range s.Variables {
		t, err := e.evalTarget(ctx, lv, env, sf)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	values, err := e.evalList(ctx, s.Expressions, env, sf)
	if err != nil {
		return err
	}
	values = adjust(values, len(targets))

	for i, t := range targets {
		if t.table == nil {
			err = env.Assign(t.name, values[i])
		} else {
			err = t.table.Set(t.key, values[i])
		}
		if err != nil {
			return runtimeError(err, t.at, sf)
		}
	}
	return nil
}

func (e *Evaluator) execLocal(ctx context.Context, s *ast.Local, env *Env, sf *CallFrame) error {
	values, err := e.evalList(ctx, s.Expressions, env, sf)
	if err != nil {
		return err
	}
	values = adjust(values, len(s.Names))

	for i, n := range s.Names {
		switch n.Attribute {
		case "":
			env.Define(n.Name, values[i])
		case "const", "close":
			env.defineConst(n.Name, values[i])
		default:
			return runtimeError(fmt.Errorf("unknown attribute '%s'", n.Attribute), n.Ctx, sf)
		}
	}
	return nil
}

// adjust pads or truncates values to n entries.
func adjust(values []Value, n int) []Value {
	if len(values) >= n {
		return values[:n]
	}
	out := make([]Value, n)
	copy(out, values)
	return out
}
