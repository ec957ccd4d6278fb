package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableArrayAndHashParts(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Set(2.0, "b"))
	assert.Equal(t, 0, tbl.Len(), "2 without 1 lives in the hash part")

	require.NoError(t, tbl.Set(1.0, "a"))
	assert.Equal(t, 2, tbl.Len(), "setting 1 migrates 2 into the array part")
	assert.True(t, tbl.IsArray())

	require.NoError(t, tbl.Set(1.0, nil))
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "b", tbl.Get(2.0))

	assert.EqualError(t, tbl.Set(nil, 1), "index is nil")
}

func TestTableRangeOrder(t *testing.T) {
	tbl := NewArray("x", "y")
	tbl.SetField("z", 1.0)
	tbl.SetField("a", 2.0)
	tbl.SetField("z", 3.0)

	var keys []Value
	tbl.Range(func(k, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []Value{1.0, 2.0, "z", "a"}, keys)
	assert.Equal(t, 3.0, tbl.Field("z"))
}

func TestTableInsertRemove(t *testing.T) {
	tbl := NewArray(1.0, 2.0, 3.0)
	require.NoError(t, tbl.Insert(2, 9.0))
	assert.Equal(t, []Value{1.0, 9.0, 2.0, 3.0}, tbl.Array())

	v, err := tbl.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, []Value{9.0, 2.0, 3.0}, tbl.Array())

	_, err = tbl.Remove(7)
	assert.Error(t, err)

	empty := NewTable()
	v, err = empty.Remove(0)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFromGoToGo(t *testing.T) {
	v := FromGo(map[string]any{
		"name": "page",
		"tags": []any{"a", "b"},
		"n":    3,
	})
	tbl, ok := v.(*Table)
	require.True(t, ok)
	assert.Equal(t, "page", tbl.Field("name"))
	assert.Equal(t, 3.0, tbl.Field("n"))

	back := ToGo(tbl)
	assert.Equal(t, map[string]any{
		"n":    3.0,
		"name": "page",
		"tags": []any{"a", "b"},
	}, back)
}

func TestToGoStopsAtCycles(t *testing.T) {
	tbl := NewTable()
	tbl.SetField("self", tbl)
	assert.Equal(t, map[string]any{"self": "<cycle>"}, ToGo(tbl))
}

func TestFormatAndParseNumber(t *testing.T) {
	assert.Equal(t, "3", FormatNumber(3))
	assert.Equal(t, "-0.5", FormatNumber(-0.5))
	assert.Equal(t, "1e+15", FormatNumber(1e15))

	for in, want := range map[string]float64{"10": 10, "0x10": 16, "-0x10": -16, "1e2": 100, " 7 ": 7} {
		got, ok := ParseNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "1_000", "nan", "-inf", "--1"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestDecodeEscapes(t *testing.T) {
	assert.Equal(t, "plain", decodeEscapes("plain"))
	assert.Equal(t, "a\"b'c\\", decodeEscapes(`a\"b\'c\\`))
	assert.Equal(t, "é", decodeEscapes(`\u{E9}`))
	assert.Equal(t, `\q`, decodeEscapes(`\q`))
	assert.Equal(t, "\x00x", decodeEscapes(`\0x`))
}
