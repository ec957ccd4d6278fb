package ast

import (
	"encoding/json"
	"maps"
	"slices"
)

// Context is an immutable record of caller-supplied fields (for example the
// page a script came from). The same record is stamped onto every node of a
// parse; it is never modified after construction.
type Context struct {
	fields map[string]any
}

// NewContext copies fields into a new Context.
func NewContext(fields map[string]any) Context {
	if len(fields) == 0 {
		return Context{}
	}
	return Context{fields: maps.Clone(fields)}
}

// With returns a copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	next := make(map[string]any, len(c.fields)+1)
	maps.Copy(next, c.fields)
	next[key] = value
	return Context{fields: next}
}

// Get returns the value stored under key.
func (c Context) Get(key string) (any, bool) {
	v, ok := c.fields[key]
	return v, ok
}

// Text returns the value under key if it is a string.
func (c Context) Text(key string) string {
	s, _ := c.fields[key].(string)
	return s
}

// Keys returns the field names in sorted order.
func (c Context) Keys() []string {
	return slices.Sorted(maps.Keys(c.fields))
}

// Len returns the number of fields.
func (c Context) Len() int {
	return len(c.fields)
}

// MarshalJSON encodes the fields as a JSON object.
func (c Context) MarshalJSON() ([]byte, error) {
	if c.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.fields)
}

// Ctx is the span record carried by every node: the half-open byte range of
// the node in the original source plus the ambient Context.
type Ctx struct {
	From    int
	To      int
	Context Context
}

// Span returns the record itself; embedding Ctx makes every node a Node.
func (c Ctx) Span() Ctx {
	return c
}

// Slice returns the source text the span covers, or "" when the span does
// not fit src.
func (c Ctx) Slice(src string) string {
	if c.From < 0 || c.To > len(src) || c.From > c.To {
		return ""
	}
	return src[c.From:c.To]
}
