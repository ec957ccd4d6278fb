package eval

import (
	"math"
)

func mathLib() *Table {
	t := newLib("math", map[string]BuiltinFunc{
		"floor": mathUnary(math.Floor),
		"ceil":  mathUnary(math.Ceil),
		"abs":   mathUnary(math.Abs),
		"sqrt":  mathUnary(math.Sqrt),
		"max":   mathMax,
		"min":   mathMin,
	})
	t.SetField("huge", math.Inf(1))
	t.SetField("pi", math.Pi)
	return t
}

func mathUnary(fn func(float64) float64) BuiltinFunc {
	return func(c *Call) ([]Value, error) {
		x := c.Number()
		return []Value{fn(x)}, c.Err()
	}
}

func mathMax(c *Call) ([]Value, error) {
	best := c.Number()
	for range c.NArgs() - 1 {
		if x := c.Number(); x > best {
			best = x
		}
	}
	return []Value{best}, c.Err()
}

func mathMin(c *Call) ([]Value, error) {
	best := c.Number()
	for range c.NArgs() - 1 {
		if x := c.Number(); x < best {
			best = x
		}
	}
	return []Value{best}, c.Err()
}
