package eval

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var stringLib = map[string]BuiltinFunc{
	"upper":  stringUpper,
	"lower":  stringLower,
	"len":    stringLen,
	"rep":    stringRep,
	"sub":    stringSub,
	"format": stringFormat,
}

func sortedNames(fns map[string]BuiltinFunc) []string {
	return slices.Sorted(maps.Keys(fns))
}

func stringUpper(c *Call) ([]Value, error) {
	s := c.String()
	return []Value{strings.ToUpper(s)}, c.Err()
}

func stringLower(c *Call) ([]Value, error) {
	s := c.String()
	return []Value{strings.ToLower(s)}, c.Err()
}

func stringLen(c *Call) ([]Value, error) {
	s := c.String()
	return []Value{float64(len(s))}, c.Err()
}

// maxRepSize caps the length of a string.rep result.
const maxRepSize = 1 << 26

func stringRep(c *Call) ([]Value, error) {
	s, n, sep := c.String(), c.Int(), c.String("")
	if err := c.Err(); err != nil {
		return nil, err
	}
	unit := len(s) + len(sep)
	if n <= 0 || unit == 0 {
		return []Value{""}, nil
	}
	if n > maxRepSize/unit {
		return nil, errors.New("resulting string too large")
	}
	var b strings.Builder
	b.Grow(unit*n - len(sep))
	for i := range n {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s)
	}
	return []Value{b.String()}, nil
}

// posrelat turns a possibly negative string position into a 1-based one.
func posrelat(pos, l int) int {
	if pos >= 0 {
		return pos
	}
	if -pos > l {
		return 0
	}
	return l + pos + 1
}

func stringSub(c *Call) ([]Value, error) {
	s := c.String()
	l := len(s)
	i, j := posrelat(c.Int(), l), posrelat(c.Int(-1), l)
	if err := c.Err(); err != nil {
		return nil, err
	}
	i = max(i, 1)
	j = min(j, l)
	if i > j {
		return []Value{""}, nil
	}
	return []Value{s[i-1 : j]}, nil
}

func stringFormat(c *Call) ([]Value, error) {
	format := c.String()
	if err := c.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		i++
		if i >= len(format) {
			return nil, errors.New("invalid conversion '%' to 'format'")
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		verb, spec, n, err := scanFormat(format[i:])
		if err != nil {
			return nil, err
		}
		i += n
		if err := formatItem(c, &b, verb, spec); err != nil {
			return nil, err
		}
	}
	return []Value{b.String()}, c.Err()
}

// scanFormat reads the flags, width and precision of one conversion and
// returns the verb, the modifier text before it and the number of bytes consumed
// up to the verb.
func scanFormat(s string) (byte, string, int, error) {
	const flags = "-+ #0"

	p := 0
	for p < len(s) && strings.IndexByte(flags, s[p]) >= 0 {
		p++
	}
	if p > len(flags) {
		return 0, "", 0, errors.New("invalid format (repeated flags)")
	}
	for k := 0; k < 2 && p < len(s) && isDigit(s[p]); k++ {
		p++
	}
	if p < len(s) && s[p] == '.' {
		p++
		for k := 0; k < 2 && p < len(s) && isDigit(s[p]); k++ {
			p++
		}
	}
	if p >= len(s) {
		return 0, "", 0, errors.New("invalid conversion to 'format'")
	}
	if isDigit(s[p]) {
		return 0, "", 0, errors.New("invalid format (width or precision too long)")
	}
	return s[p], s[:p], p, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func formatItem(c *Call, b *strings.Builder, verb byte, spec string) error {
	switch verb {
	case 'c':
		b.WriteByte(byte(c.Int()))
	case 'd', 'i':
		fmt.Fprintf(b, "%"+spec+"d", c.Int())
	case 'o', 'x', 'X':
		fmt.Fprintf(b, "%"+spec+string(verb), uint64(int64(c.Int())))
	case 'e', 'E', 'f', 'F', 'g', 'G':
		fmt.Fprintf(b, "%"+spec+string(verb), c.Number())
	case 'q':
		b.WriteString(quoteString(c.String()))
	case 's':
		v := c.Any()
		fmt.Fprintf(b, "%"+spec+"s", ToString(v))
	default:
		return fmt.Errorf("invalid conversion '%%%s%c' to 'format'", spec, verb)
	}
	return nil
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"', '\\', '\n':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}
