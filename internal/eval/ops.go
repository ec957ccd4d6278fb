package eval

import (
	"fmt"
	"math"
	"strings"
)

func binaryOp(op string, a, b Value) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "//", "%", "^":
		return arith(op, a, b)
	case "..":
		return concat(a, b)
	case "==":
		return a == b, nil
	case "~=":
		return a != b, nil
	case "<":
		return lessThan(a, b)
	case "<=":
		return lessEqual(a, b)
	case ">":
		return lessThan(b, a)
	case ">=":
		return lessEqual(b, a)
	case "&", "|", "~", "<<", ">>":
		return bitwise(op, a, b)
	default:
		return nil, fmt.Errorf("unknown binary operator '%s'", op)
	}
}

func unaryOp(op string, v Value) (Value, error) {
	switch op {
	case "-":
		n, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("attempt to perform arithmetic on a %s value", TypeName(v))
		}
		return -n, nil
	case "not":
		return !Truthy(v), nil
	case "#":
		switch x := v.(type) {
		case string:
			return float64(len(x)), nil
		case *Table:
			return float64(x.Len()), nil
		}
		return nil, fmt.Errorf("attempt to get length of a %s value", TypeName(v))
	case "~":
		i, err := bitOperand(v)
		if err != nil {
			return nil, err
		}
		return float64(^i), nil
	default:
		return nil, fmt.Errorf("unknown unary operator '%s'", op)
	}
}

func arith(op string, a, b Value) (Value, error) {
	x, ok := toNumber(a)
	if !ok {
		return nil, fmt.Errorf("attempt to perform arithmetic on a %s value", TypeName(a))
	}
	y, ok := toNumber(b)
	if !ok {
		return nil, fmt.Errorf("attempt to perform arithmetic on a %s value", TypeName(b))
	}

	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		return x / y, nil
	case "//":
		return math.Floor(x / y), nil
	case "%":
		if math.IsInf(y, 0) && !math.IsInf(x, 0) && !math.IsNaN(x) {
			if x == 0 || (x > 0) == (y > 0) {
				return x, nil
			}
			return y, nil
		}
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m, nil
	default:
		return math.Pow(x, y), nil
	}
}

func concat(a, b Value) (Value, error) {
	var sb strings.Builder
	for _, v := range []Value{a, b} {
		switch x := v.(type) {
		case string:
			sb.WriteString(x)
		case float64:
			sb.WriteString(FormatNumber(x))
		default:
			return nil, fmt.Errorf("attempt to concatenate a %s value", TypeName(v))
		}
	}
	return sb.String(), nil
}

func compareError(a, b Value) error {
	ta, tb := TypeName(a), TypeName(b)
	if ta == tb {
		return fmt.Errorf("attempt to compare two %s values", ta)
	}
	return fmt.Errorf("attempt to compare %s with %s", ta, tb)
}

func lessThan(a, b Value) (bool, error) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return x < y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y, nil
		}
	}
	return false, compareError(a, b)
}

func lessEqual(a, b Value) (bool, error) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return x <= y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return x <= y, nil
		}
	}
	return false, compareError(a, b)
}

func bitOperand(v Value) (int64, error) {
	if _, ok := toNumber(v); !ok {
		return 0, fmt.Errorf("attempt to perform bitwise operation on a %s value", TypeName(v))
	}
	i, ok := toInteger(v)
	if !ok {
		return 0, fmt.Errorf("number has no integer representation")
	}
	return i, nil
}

func bitwise(op string, a, b Value) (Value, error) {
	x, err := bitOperand(a)
	if err != nil {
		return nil, err
	}
	y, err := bitOperand(b)
	if err != nil {
		return nil, err
	}

	switch op {
	case "&":
		return float64(x & y), nil
	case "|":
		return float64(x | y), nil
	case "~":
		return float64(x ^ y), nil
	case "<<":
		return float64(shiftLeft(x, y)), nil
	default:
		return float64(shiftLeft(x, -y)), nil
	}
}

// shiftLeft is a logical shift; negative n shifts right.
func shiftLeft(x, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(x) << uint(n))
	default:
		return int64(uint64(x) >> uint(-n))
	}
}
