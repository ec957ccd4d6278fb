package eval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NewGlobalEnv creates a global scope holding the standard library.
func NewGlobalEnv() *Env {
	env := NewEnv(nil)
	for _, b := range []*Builtin{
		NewBuiltin("print", basePrint),
		NewBuiltin("type", baseType),
		NewBuiltin("tostring", baseToString),
		NewBuiltin("tonumber", baseToNumber),
		NewBuiltin("pairs", basePairs),
		NewBuiltin("ipairs", baseIPairs),
		NewBuiltin("select", baseSelect),
		NewBuiltin("error", baseError),
		NewBuiltin("assert", baseAssert),
		NewBuiltin("pcall", basePCall),
	} {
		env.Define(b.Name, b)
	}
	env.Define("string", newLib("string", stringLib))
	env.Define("table", newLib("table", tableLib))
	env.Define("math", mathLib())
	return env
}

func newLib(prefix string, fns map[string]BuiltinFunc) *Table {
	t := NewTable()
	for _, name := range sortedNames(fns) {
		t.SetField(name, NewBuiltin(prefix+"."+name, fns[name]))
	}
	return t
}

func basePrint(c *Call) ([]Value, error) {
	parts := make([]string, len(c.Args))
	for i, v := range c.Args {
		parts[i] = ToString(v)
	}
	_, err := fmt.Fprintln(c.eval.stdout, strings.Join(parts, "\t"))
	return nil, err
}

func baseType(c *Call) ([]Value, error) {
	v := c.Any()
	return []Value{TypeName(v)}, c.Err()
}

func baseToString(c *Call) ([]Value, error) {
	v := c.Any()
	return []Value{ToString(v)}, c.Err()
}

func baseToNumber(c *Call) ([]Value, error) {
	v := c.Any()
	if c.NArgs() < 2 || c.Args[1] == nil {
		n, ok := toNumber(v)
		if !ok || c.Err() != nil {
			return []Value{nil}, c.Err()
		}
		return []Value{n}, nil
	}

	base := c.Int()
	if err := c.Err(); err != nil {
		return nil, err
	}
	if base < 2 || base > 36 {
		return nil, errors.New("bad argument #2 to 'tonumber' (base out of range)")
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'tonumber' (string expected, got %s)", TypeName(v))
	}
	i, err := strconv.ParseInt(strings.ToLower(strings.TrimSpace(s)), base, 64)
	if err != nil {
		return []Value{nil}, nil
	}
	return []Value{float64(i)}, nil
}

func basePairs(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	keys := t.Keys()
	next := 0
	iter := NewBuiltin("pairs_iterator", func(*Call) ([]Value, error) {
		for next < len(keys) {
			k := keys[next]
			next++
			if v := t.Get(k); v != nil {
				return []Value{k, v}, nil
			}
		}
		return []Value{nil}, nil
	})
	return []Value{iter, t, nil}, nil
}

var ipairsIterator = NewBuiltin("ipairs_iterator", func(c *Call) ([]Value, error) {
	t := c.Table()
	i := c.Int()
	if err := c.Err(); err != nil {
		return nil, err
	}
	v := t.Get(float64(i + 1))
	if v == nil {
		return []Value{nil}, nil
	}
	return []Value{float64(i + 1), v}, nil
})

func baseIPairs(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	return []Value{ipairsIterator, t, 0.0}, nil
}

func baseSelect(c *Call) ([]Value, error) {
	if c.NArgs() > 0 && c.Args[0] == "#" {
		return []Value{float64(c.NArgs() - 1)}, nil
	}
	n := c.Int()
	if err := c.Err(); err != nil {
		return nil, err
	}
	rest := c.Rest()
	switch {
	case n < 0:
		n += len(rest) + 1
		if n < 1 {
			return nil, errors.New("bad argument #1 to 'select' (index out of range)")
		}
	case n == 0:
		return nil, errors.New("bad argument #1 to 'select' (index out of range)")
	}
	if n > len(rest) {
		return nil, nil
	}
	return rest[n-1:], nil
}

func baseError(c *Call) ([]Value, error) {
	var v Value
	if c.NArgs() > 0 {
		v = c.Args[0]
	}
	return nil, NewRuntimeError(v)
}

func baseAssert(c *Call) ([]Value, error) {
	v := c.Any()
	if err := c.Err(); err != nil {
		return nil, err
	}
	if Truthy(v) {
		return c.Args, nil
	}
	if c.NArgs() > 1 {
		return nil, NewRuntimeError(c.Args[1])
	}
	return nil, NewRuntimeError("assertion failed!")
}

func basePCall(c *Call) ([]Value, error) {
	fn := c.Any()
	if err := c.Err(); err != nil {
		return nil, err
	}
	rets, err := c.Invoke(fn, c.Rest()...)
	if err != nil {
		if fatal(err) {
			return nil, err
		}
		var re *RuntimeError
		if errors.As(err, &re) {
			return []Value{false, re.Value}, nil
		}
		return []Value{false, err.Error()}, nil
	}
	return append([]Value{true}, rets...), nil
}
