package eval

import (
	"context"
	"fmt"
)

// Call is the invocation of a builtin. Argument getters read the arguments
// in order; the first failure sticks and is reported by Err.
type Call struct {
	Context context.Context
	Frame   *CallFrame
	Args    []Value

	name string
	pos  int
	err  error
	eval *Evaluator
}

// Evaluator returns the evaluator running the call.
func (c *Call) Evaluator() *Evaluator {
	return c.eval
}

// Invoke calls a script function from inside a builtin.
func (c *Call) Invoke(fn Value, args ...Value) ([]Value, error) {
	return c.eval.call(c.Context, fn, args, c.Frame.Ctx, c.Frame)
}

// Err returns the first argument error.
func (c *Call) Err() error {
	return c.err
}

// NArgs returns the number of arguments.
func (c *Call) NArgs() int {
	return len(c.Args)
}

func (c *Call) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Call) next(expected string, optional bool) (Value, bool) {
	c.pos++
	if c.pos > len(c.Args) {
		if !optional {
			c.fail(fmt.Errorf("bad argument #%d to '%s' (%s expected, got no value)", c.pos, c.name, expected))
		}
		return nil, false
	}
	return c.Args[c.pos-1], true
}

func (c *Call) argError(expected string, got Value) {
	c.fail(fmt.Errorf("bad argument #%d to '%s' (%s expected, got %s)", c.pos, c.name, expected, TypeName(got)))
}

// Any returns the next argument, which may be nil.
func (c *Call) Any() Value {
	v, ok := c.next("value", false)
	if !ok {
		return nil
	}
	return v
}

// Number returns the next argument as a number. Numeric strings are
// accepted. An optional default makes the argument optional.
func (c *Call) Number(def ...float64) float64 {
	v, ok := c.next("number", len(def) > 0)
	if !ok || (v == nil && len(def) > 0) {
		if len(def) > 0 {
			return def[0]
		}
		return 0
	}
	n, ok := toNumber(v)
	if !ok {
		c.argError("number", v)
	}
	return n
}

// Int returns the next argument as an integer.
func (c *Call) Int(def ...int) int {
	v, ok := c.next("number", len(def) > 0)
	if !ok || (v == nil && len(def) > 0) {
		if len(def) > 0 {
			return def[0]
		}
		return 0
	}
	if _, ok := toNumber(v); !ok {
		c.argError("number", v)
		return 0
	}
	i, ok := toInteger(v)
	if !ok {
		c.fail(fmt.Errorf("bad argument #%d to '%s' (number has no integer representation)", c.pos, c.name))
	}
	return int(i)
}

// String returns the next argument as a string. Numbers are converted.
func (c *Call) String(def ...string) string {
	v, ok := c.next("string", len(def) > 0)
	if !ok || (v == nil && len(def) > 0) {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return FormatNumber(x)
	}
	c.argError("string", v)
	return ""
}

// Table returns the next argument as a table.
func (c *Call) Table() *Table {
	v, ok := c.next("table", false)
	if !ok {
		return nil
	}
	t, ok := v.(*Table)
	if !ok {
		c.argError("table", v)
	}
	return t
}

// Function returns the next argument if it is callable.
func (c *Call) Function() Value {
	v, ok := c.next("function", false)
	if !ok {
		return nil
	}
	switch v.(type) {
	case *Closure, *Builtin:
		return v
	}
	c.argError("function", v)
	return nil
}

// Rest returns the arguments not read yet.
func (c *Call) Rest() []Value {
	if c.pos >= len(c.Args) {
		return nil
	}
	rest := c.Args[c.pos:]
	c.pos = len(c.Args)
	return rest
}
