package eval

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Table is a space-lua table with an array part for the keys 1..n and a
// hash part that remembers insertion order. Tables compare by reference, so
// always use *Table.
type Table struct {
	list []Value
	hash map[Value]Value
	keys []Value
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// NewArray creates a table holding values at 1..len(values). Trailing nils
// are dropped.
func NewArray(values ...Value) *Table {
	t := &Table{}
	for i, v := range values {
		if v != nil {
			t.setInt(i+1, v)
		}
	}
	return t
}

// listIndex reports whether k is a positive integral number.
func listIndex(k float64) (int, bool) {
	if k < 1 || k != math.Trunc(k) || k > math.MaxInt32 {
		return 0, false
	}
	return int(k), true
}

// Len returns the border of the array part.
func (t *Table) Len() int {
	return len(t.list)
}

// IsArray reports whether every key lives in the array part.
func (t *Table) IsArray() bool {
	return len(t.hash) == 0
}

// Get returns the value under k, or nil.
func (t *Table) Get(k Value) Value {
	if f, ok := k.(float64); ok {
		if i, ok := listIndex(f); ok && i <= len(t.list) {
			return t.list[i-1]
		}
	}
	if k == nil || t.hash == nil {
		return nil
	}
	if f, ok := k.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return t.hash[k]
}

// Field returns the value under a string key.
func (t *Table) Field(name string) Value {
	return t.Get(name)
}

// Set stores v under k. Setting nil removes the key.
func (t *Table) Set(k, v Value) error {
	switch key := k.(type) {
	case nil:
		return errors.New("index is nil")
	case float64:
		if math.IsNaN(key) {
			return errors.New("index is NaN")
		}
		if i, ok := listIndex(key); ok {
			t.setInt(i, v)
			return nil
		}
	}
	t.setHash(k, v)
	return nil
}

// SetField stores v under a string key.
func (t *Table) SetField(name string, v Value) {
	t.setHash(name, v)
}

// Append stores v at Len()+1.
func (t *Table) Append(v Value) {
	if v == nil {
		return
	}
	t.setInt(len(t.list)+1, v)
}

// Insert shifts the elements at pos..Len() up and stores v at pos.
func (t *Table) Insert(pos int, v Value) error {
	n := len(t.list)
	if pos < 1 || pos > n+1 {
		return fmt.Errorf("position %d out of bounds", pos)
	}
	if v == nil {
		return nil
	}
	t.deleteHash(float64(n + 1))
	t.list = slices.Insert(t.list, pos-1, v)
	t.migrate()
	return nil
}

// Remove deletes the element at pos, shifting later elements down, and
// returns it.
func (t *Table) Remove(pos int) (Value, error) {
	n := len(t.list)
	if n == 0 && (pos == 0 || pos == n) {
		return nil, nil
	}
	if pos < 1 || pos > n+1 {
		return nil, fmt.Errorf("position %d out of bounds", pos)
	}
	if pos == n+1 {
		return nil, nil
	}
	v := t.list[pos-1]
	t.list = slices.Delete(t.list, pos-1, pos)
	return v, nil
}

// Range calls fn for every entry: the array part in order, then the hash
// part in insertion order. It stops when fn returns false.
func (t *Table) Range(fn func(k, v Value) bool) {
	for i, v := range t.list {
		if !fn(float64(i+1), v) {
			return
		}
	}
	for _, k := range t.keys {
		if !fn(k, t.hash[k]) {
			return
		}
	}
}

// Keys returns a snapshot of the keys in iteration order.
func (t *Table) Keys() []Value {
	keys := make([]Value, 0, len(t.list)+len(t.keys))
	for i := range t.list {
		keys = append(keys, float64(i+1))
	}
	return append(keys, t.keys...)
}

// Array returns a copy of the array part.
func (t *Table) Array() []Value {
	return slices.Clone(t.list)
}

func (t *Table) setInt(i int, v Value) {
	n := len(t.list)
	switch {
	case i <= n:
		if v != nil {
			t.list[i-1] = v
			return
		}
		tail := slices.Clone(t.list[i:])
		t.list = t.list[:i-1]
		for j, tv := range tail {
			t.setHash(float64(i+1+j), tv)
		}
	case i == n+1 && v != nil:
		t.deleteHash(float64(i))
		t.list = append(t.list, v)
		t.migrate()
	default:
		t.setHash(float64(i), v)
	}
}

// migrate moves keys n+1, n+2, ... from the hash part to the array part.
func (t *Table) migrate() {
	for {
		k := float64(len(t.list) + 1)
		v, ok := t.hash[k]
		if !ok {
			return
		}
		t.deleteHash(k)
		t.list = append(t.list, v)
	}
}

func (t *Table) setHash(k, v Value) {
	if v == nil {
		t.deleteHash(k)
		return
	}
	if t.hash == nil {
		t.hash = make(map[Value]Value)
	}
	if _, ok := t.hash[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.hash[k] = v
}

func (t *Table) deleteHash(k Value) {
	if _, ok := t.hash[k]; !ok {
		return
	}
	delete(t.hash, k)
	if i := slices.Index(t.keys, k); i >= 0 {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
}
