package eval

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FromGo converts a Go value (as produced by JSON or YAML decoding) into a
// script value. Maps become tables with keys set in sorted order.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case []string:
		t := NewTable()
		for _, s := range x {
			t.Append(s)
		}
		return t
	case []any:
		t := NewTable()
		for _, e := range x {
			t.Append(FromGo(e))
		}
		return t
	case map[string]any:
		t := NewTable()
		for _, k := range slices.Sorted(maps.Keys(x)) {
			t.SetField(k, FromGo(x[k]))
		}
		return t
	case map[any]any:
		t := NewTable()
		keys := slices.Collect(maps.Keys(x))
		slices.SortFunc(keys, func(a, b any) int { return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)) })
		for _, k := range keys {
			_ = t.Set(FromGo(k), FromGo(x[k]))
		}
		return t
	case *Table, *Closure, *Builtin:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// ToGo converts a script value into plain Go data suitable for JSON. A
// table with only an array part becomes a slice; any other table becomes a
// map keyed by the string form of its keys.
func ToGo(v Value) any {
	return toGo(v, map[*Table]bool{})
}

func toGo(v Value, seen map[*Table]bool) any {
	switch x := v.(type) {
	case *Table:
		if seen[x] {
			return "<cycle>"
		}
		seen[x] = true
		defer delete(seen, x)

		if x.IsArray() {
			out := make([]any, 0, x.Len())
			for _, e := range x.list {
				out = append(out, toGo(e, seen))
			}
			return out
		}
		out := make(map[string]any)
		x.Range(func(k, e Value) bool {
			out[ToString(k)] = toGo(e, seen)
			return true
		})
		return out
	case *Closure, *Builtin:
		return ToString(x)
	default:
		return x
	}
}

// decodeEscapes resolves backslash escapes in string literal content.
// Unknown escapes are kept as written.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\', '"', '\'':
			b.WriteByte(e)
		case '\n':
			b.WriteByte('\n')
		case 'z':
			for i+1 < len(s) && strings.IndexByte(" \t\r\n\f\v", s[i+1]) >= 0 {
				i++
			}
		case 'x':
			if i+2 < len(s) {
				if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(n))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 < len(s) && s[i+1] == '{' && end > 2 {
				if n, err := strconv.ParseUint(s[i+2:i+end], 16, 32); err == nil && n <= utf8.MaxRune {
					b.WriteRune(rune(n))
					i += end
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			if e >= '0' && e <= '9' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '9' {
					j++
				}
				if n, err := strconv.Atoi(s[i:j]); err == nil && n <= 255 {
					b.WriteByte(byte(n))
					i = j - 1
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}
