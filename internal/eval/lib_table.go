package eval

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var tableLib = map[string]BuiltinFunc{
	"insert": tableInsert,
	"remove": tableRemove,
	"concat": tableConcat,
	"sort":   tableSort,
	"unpack": tableUnpack,
}

func tableInsert(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	switch c.NArgs() {
	case 2:
		t.Append(c.Args[1])
		return nil, nil
	case 3:
		pos := c.Int()
		v := c.Any()
		if err := c.Err(); err != nil {
			return nil, err
		}
		if err := t.Insert(pos, v); err != nil {
			return nil, fmt.Errorf("bad argument #2 to 'insert' (%w)", err)
		}
		return nil, nil
	default:
		return nil, errors.New("wrong number of arguments to 'insert'")
	}
}

func tableRemove(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	pos := c.Int(t.Len())
	if err := c.Err(); err != nil {
		return nil, err
	}
	v, err := t.Remove(pos)
	if err != nil {
		return nil, fmt.Errorf("bad argument #2 to 'remove' (%w)", err)
	}
	return []Value{v}, nil
}

func tableConcat(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	sep, i, j := c.String(""), c.Int(1), c.Int(t.Len())
	if err := c.Err(); err != nil {
		return nil, err
	}

	parts := make([]string, 0, max(j-i+1, 0))
	for k := i; k <= j; k++ {
		switch v := t.Get(float64(k)).(type) {
		case string:
			parts = append(parts, v)
		case float64:
			parts = append(parts, FormatNumber(v))
		default:
			return nil, fmt.Errorf("invalid value (at index %d) in table for 'concat'", k)
		}
	}
	return []Value{strings.Join(parts, sep)}, nil
}

func tableSort(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	var less Value
	if c.NArgs() > 1 && c.Args[1] != nil {
		less = c.Function()
		if err := c.Err(); err != nil {
			return nil, err
		}
	}

	var sortErr error
	sort.SliceStable(t.list, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		x, y := t.list[a], t.list[b]
		if less == nil {
			ok, err := lessThan(x, y)
			sortErr = err
			return ok
		}
		rets, err := c.Invoke(less, x, y)
		if err != nil {
			sortErr = err
			return false
		}
		return len(rets) > 0 && Truthy(rets[0])
	})
	return nil, sortErr
}

func tableUnpack(c *Call) ([]Value, error) {
	t := c.Table()
	if err := c.Err(); err != nil {
		return nil, err
	}
	i, j := c.Int(1), c.Int(t.Len())
	if err := c.Err(); err != nil {
		return nil, err
	}
	if i > j {
		return nil, nil
	}
	if j-i >= 1<<20 {
		return nil, errors.New("too many results to unpack")
	}
	out := make([]Value, 0, j-i+1)
	for k := i; k <= j; k++ {
		out = append(out, t.Get(float64(k)))
	}
	return out, nil
}
