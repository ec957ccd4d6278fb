package eval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// maxCallDepth bounds script recursion.
const maxCallDepth = 200

// Evaluator executes syntax trees. It holds configuration only; every
// evaluation state lives in the Env and CallFrame passed to it, so one
// Evaluator may run concurrent evaluations on separate environments.
type Evaluator struct {
	maxSteps int
	stdout   io.Writer
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxSteps bounds loop iterations, gotos and calls per evaluation.
// Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(e *Evaluator) {
		e.maxSteps = n
	}
}

// WithStdout sets where print writes.
func WithStdout(w io.Writer) Option {
	return func(e *Evaluator) {
		e.stdout = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		stdout: os.Stdout,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSteps returns the step budget per evaluation.
func (e *Evaluator) MaxSteps() int {
	return e.maxSteps
}

// frame returns sf, or a fresh root frame with its own step budget.
func (e *Evaluator) frame(sf *CallFrame, at ast.Ctx) *CallFrame {
	if sf == nil {
		return &CallFrame{Ctx: at, budget: &budget{max: e.maxSteps}}
	}
	if sf.budget == nil {
		sf.budget = &budget{max: e.maxSteps}
	}
	return sf
}

// Exec runs block in a new scope nested in env and returns the values of a
// top-level return statement. A nil sf starts a new evaluation with a
// fresh step budget.
func (e *Evaluator) Exec(ctx context.Context, block *ast.Block, env *Env, sf *CallFrame) ([]Value, error) {
	sf = e.frame(sf, block.Ctx)
	scope := NewEnv(env)
	scope.Define("...", &varargs{})

	sig, err := e.execStatements(ctx, block.Statements, scope, sf)
	e.logger.Debug("block executed",
		slog.Int("statements", len(block.Statements)),
		slog.Int("steps", sf.Steps()),
		slog.Bool("failed", err != nil))
	if err != nil {
		return nil, err
	}

	switch sig.kind {
	case sigReturn:
		return sig.values, nil
	case sigBreak:
		return nil, runtimeError(fmt.Errorf("break outside a loop"), sig.at, sf)
	case sigGoto:
		return nil, runtimeError(fmt.Errorf("no visible label '%s' for goto", sig.label), sig.at, sf)
	}
	return nil, nil
}

// EvalExpression evaluates expr to a single value.
func (e *Evaluator) EvalExpression(ctx context.Context, expr ast.Expression, env *Env, sf *CallFrame) (Value, error) {
	return e.eval(ctx, expr, env, e.frame(sf, expr.Span()))
}

// EvalExpressions evaluates a list of expressions. Only the last one may
// contribute more than one value.
func (e *Evaluator) EvalExpressions(ctx context.Context, exprs []ast.Expression, env *Env, sf *CallFrame) ([]Value, error) {
	var at ast.Ctx
	if len(exprs) > 0 {
		at = exprs[0].Span()
	}
	return e.evalList(ctx, exprs, env, e.frame(sf, at))
}

// Call invokes fn with args. A nil sf starts a new evaluation.
func (e *Evaluator) Call(ctx context.Context, fn Value, args []Value, sf *CallFrame) ([]Value, error) {
	var at ast.Ctx
	if sf != nil {
		at = sf.Ctx
	}
	return e.call(ctx, fn, args, at, e.frame(sf, at))
}

// step charges one unit of the evaluation budget and checks for
// cancellation.
func (e *Evaluator) step(ctx context.Context, at ast.Ctx, sf *CallFrame) error {
	if err := ctx.Err(); err != nil {
		return runtimeError(err, at, sf)
	}
	b := sf.budget
	b.steps++
	if b.max > 0 && b.steps > b.max {
		return runtimeError(ErrStepLimit, at, sf)
	}
	return nil
}

func (e *Evaluator) call(ctx context.Context, fn Value, args []Value, at ast.Ctx, sf *CallFrame) ([]Value, error) {
	frame := &CallFrame{Ctx: at, Parent: sf, depth: sf.depth + 1, budget: sf.budget}
	if err := e.step(ctx, at, frame); err != nil {
		return nil, err
	}
	if frame.depth > maxCallDepth {
		return nil, runtimeError(fmt.Errorf("stack overflow"), at, frame)
	}

	switch f := fn.(type) {
	case *Builtin:
		rets, err := f.Fn(&Call{Context: ctx, Frame: frame, Args: args, name: f.Name, eval: e})
		if err != nil {
			return nil, runtimeError(err, at, frame)
		}
		return rets, nil
	case *Closure:
		return e.callClosure(ctx, f, args, frame)
	default:
		return nil, runtimeError(fmt.Errorf("attempt to call a %s value", TypeName(fn)), at, frame)
	}
}

func (e *Evaluator) callClosure(ctx context.Context, f *Closure, args []Value, frame *CallFrame) ([]Value, error) {
	scope := NewEnv(f.Env)
	if !f.Body.IsVararg() {
		// hides the varargs of enclosing functions
		scope.Define("...", (*varargs)(nil))
	}
	for i, param := range f.Body.Parameters {
		if param == "..." {
			var rest []Value
			if i < len(args) {
				rest = args[i:]
			}
			scope.Define("...", &varargs{values: rest})
			break
		}
		var v Value
		if i < len(args) {
			v = args[i]
		}
		scope.Define(param, v)
	}

	sig, err := e.execStatements(ctx, f.Body.Block.Statements, scope, frame)
	if err != nil {
		return nil, err
	}
	switch sig.kind {
	case sigReturn:
		return sig.values, nil
	case sigBreak:
		return nil, runtimeError(fmt.Errorf("break outside a loop"), sig.at, frame)
	case sigGoto:
		return nil, runtimeError(fmt.Errorf("no visible label '%s' for goto", sig.label), sig.at, frame)
	}
	return nil, nil
}
