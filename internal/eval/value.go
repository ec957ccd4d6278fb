// Package eval is a tree-walking evaluator for lowered space-lua syntax
// trees.
//
// Values are plain Go values: nil, bool, float64, string, *Table, *Closure
// and *Builtin. There are no metatables or coroutines.
package eval

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

// Value is any space-lua value.
type Value = any

// Closure is a function defined in script code.
type Closure struct {
	Name string
	Body *ast.FunctionBody
	Env  *Env
}

// BuiltinFunc implements a function provided by the host.
type BuiltinFunc func(c *Call) ([]Value, error)

// Builtin is a host function.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// NewBuiltin wraps fn as a callable value.
func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

// varargs holds the extra arguments of a vararg function. It is stored in
// the function scope under "..." and never escapes as a Value.
type varargs struct {
	values []Value
}

// TypeName returns the script-visible type of v.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Table:
		return "table"
	case *Closure, *Builtin:
		return "function"
	default:
		return "userdata"
	}
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

// ToString renders v the way tostring does.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case *Table:
		return fmt.Sprintf("table: %p", x)
	case *Closure:
		return fmt.Sprintf("function: %p", x)
	case *Builtin:
		return fmt.Sprintf("function: builtin: %s", x.Name)
	default:
		return fmt.Sprint(x)
	}
}

// FormatNumber prints integral values without a fraction and everything
// else with 14 significant digits.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', 14, 64)
}

// ParseNumber converts a numeral string to a number. Surrounding space is
// allowed; "inf", "nan" and digit separators are not.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsRune(s, '_') {
		return 0, false
	}
	unsigned := strings.ToLower(strings.TrimLeft(s, "+-"))
	if len(s)-len(unsigned) > 1 {
		return 0, false
	}
	if strings.HasPrefix(unsigned, "inf") || strings.HasPrefix(unsigned, "nan") {
		return 0, false
	}
	if strings.HasPrefix(unsigned, "0x") && !strings.ContainsRune(unsigned, 'p') {
		s += "p0"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// toNumber coerces numbers and numeric strings.
func toNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		return ParseNumber(x)
	default:
		return 0, false
	}
}

// toInteger coerces v to an integer when it has an exact integer
// representation.
func toInteger(v Value) (int64, bool) {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
