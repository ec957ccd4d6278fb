package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// ErrStepLimit is returned when an evaluation exceeds its step budget.
var ErrStepLimit = errors.New("step limit exceeded")

// RuntimeError is raised while executing a script. Value is what pcall
// hands back: the argument of error() or the message of a built-in
// failure.
type RuntimeError struct {
	Value Value
	Ctx   ast.Ctx
	Trace []ast.Ctx
	Err   error

	located bool
}

// NewRuntimeError creates an error carrying v, located at the call site
// that raises it.
func NewRuntimeError(v Value) *RuntimeError {
	return &RuntimeError{Value: v}
}

func (e *RuntimeError) Error() string {
	msg := ToString(e.Value)
	if !e.located {
		return msg
	}
	return fmt.Sprintf("%s (at %s)", msg, e.Where())
}

// Where describes the error location. Scripts embedded in a larger document
// carry the document line in their context ("line"); that line is reported
// in place of the offset, which is relative to the embedded text.
func (e *RuntimeError) Where() string {
	ref := e.Ctx.Context.Text("ref")
	if v, ok := e.Ctx.Context.Get("line"); ok {
		if line, ok := v.(int); ok && line > 0 {
			if ref != "" {
				return fmt.Sprintf("%s:%d", ref, line)
			}
			return fmt.Sprintf("line %d", line)
		}
	}
	if ref != "" {
		return fmt.Sprintf("%s@%d", ref, e.Ctx.From)
	}
	return fmt.Sprintf("offset %d", e.Ctx.From)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// runtimeError converts err into a RuntimeError located at `at`, keeping
// the location of an error that already has one.
func runtimeError(err error, at ast.Ctx, frame *CallFrame) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		if !re.located {
			re.Ctx = at
			re.Trace = frame.Traceback()
			re.located = true
		}
		return re
	}
	return &RuntimeError{
		Value:   err.Error(),
		Ctx:     at,
		Trace:   frame.Traceback(),
		Err:     err,
		located: true,
	}
}

// fatal reports whether err must not be caught by pcall.
func fatal(err error) bool {
	return errors.Is(err, ErrStepLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
