package eval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

func TestStandardLibrary(t *testing.T) {
	tests := []struct {
		src  string
		want eval.Value
	}{
		{`return type(nil)`, "nil"},
		{`return type(print)`, "function"},
		{`return type({})`, "table"},
		{`return tostring(12)`, "12"},
		{`return tostring(0.1)`, "0.1"},
		{`return tostring(1/0)`, "inf"},
		{`return tonumber("0x1F")`, 31.0},
		{`return tonumber("  2.5e2 ")`, 250.0},
		{`return tonumber("12abc")`, nil},
		{`return tonumber("ff", 16)`, 255.0},
		{`return tonumber("z", 36)`, 35.0},
		{`return tonumber("inf")`, nil},
		{`return select(2, "a", "b", "c")`, "b"},
		{`return select(-1, "a", "b", "c")`, "c"},
		{`return select("#", nil, nil)`, 2.0},
		{`return string.format("%d items at %.2f", 3, 1.5)`, "3 items at 1.50"},
		{`return string.format("%5s|%-3s|", "ab", "c")`, "   ab|c  |"},
		{`return string.format("%x %X %o %%", 255, 255, 8)`, "ff FF 10 %"},
		{`return string.format("%q", 'say "hi"')`, `"say \"hi\""`},
		{`return string.format("%s %s", nil, true)`, "nil true"},
		{`return string.lower("MiXeD")`, "mixed"},
		{`return string.sub("abcdef", -3)`, "def"},
		{`return string.sub("abc", 5)`, ""},
		{`return string.rep("ab", 0)`, ""},
		{`return string.rep("ab", 3, ",")`, "ab,ab,ab"},
		{`return #string.rep("", 1e12)`, 0.0},
		{`return #string.rep("", 1e12, "")`, 0.0},
		{`return table.concat({1, "b", 3}, "-")`, "1-b-3"},
		{`return table.concat({"a", "b", "c"}, "", 2)`, "bc"},
		{`local t = {1, 2}; table.insert(t, 3); table.insert(t, 1, 0); return table.concat(t, ",")`, "0,1,2,3"},
		{`local t = {1, 2, 3}; local v = table.remove(t); return v + #t`, 5.0},
		{`local t = {1, 2, 3}; table.remove(t, 1); return table.concat(t, ",")`, "2,3"},
		{`local t = {3, 1, 2}; table.sort(t); return table.concat(t, ",")`, "1,2,3"},
		{`local t = {3, 1, 2}; table.sort(t, function(a, b) return a > b end); return table.concat(t, ",")`, "3,2,1"},
		{`local a, b = table.unpack({7, 8}); return a + b`, 15.0},
		{`return math.floor(3.7) + math.ceil(1.2)`, 5.0},
		{`return math.abs(-4)`, 4.0},
		{`return math.max(3, 9, 1)`, 9.0},
		{`return math.min(3, 9, 1)`, 1.0},
		{`return math.huge > 1e308`, true},
		{`return math.floor(math.pi * 100)`, 314.0},
		{`return assert(1, "unused")`, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			values := mustRun(t, tt.src)
			require.NotEmpty(t, values)
			assert.Equal(t, tt.want, values[0])
		})
	}
}

func TestStandardLibraryErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{`string.upper({})`, "bad argument #1 to 'string.upper' (string expected, got table)"},
		{`string.rep("x")`, "bad argument #2 to 'string.rep' (number expected, got no value)"},
		{`string.rep("x", 1e12)`, "resulting string too large"},
		{`string.rep("ab", 2^62, ",")`, "resulting string too large"},
		{`table.insert({}, 5, 1)`, "position 5 out of bounds"},
		{`table.concat({{}})`, "invalid value (at index 1) in table for 'concat'"},
		{`table.sort({1, "a"})`, "attempt to compare"},
		{`string.format("%y", 1)`, "invalid conversion '%y' to 'format'"},
		{`assert(false, "custom")`, "custom"},
		{`assert(nil)`, "assertion failed!"},
		{`select(0)`, "index out of range"},
		{`tonumber("1", 99)`, "base out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := run(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPairsSkipsRemovedKeys(t *testing.T) {
	values := mustRun(t, `
		local t = {a = 1, b = 2, c = 3}
		local seen = {}
		for k in pairs(t) do
			t.b = nil
			table.insert(seen, k)
		end
		return table.concat(seen, ",")
	`)
	assert.Equal(t, []eval.Value{"a,c"}, values)
}

func TestSpaceBindings(t *testing.T) {
	ctx := context.Background()
	sp := space.NewMemorySpace()
	_, err := sp.WritePage(ctx, "index", "---\ntags: [home]\n---\nWelcome")
	require.NoError(t, err)

	env := eval.NewGlobalEnv()
	eval.BindSpace(env, sp)

	block, err := lua.Parse(`
		space.writePage("notes", "hello")
		local names = {}
		for _, p in ipairs(space.listPages()) do
			table.insert(names, p.name)
		end
		local tag = space.listPages()[1].attributes.tags[1]
		local text = space.readPage("notes")
		space.deletePage("notes")
		local ok = pcall(space.readPage, "notes")
		return table.concat(names, ","), tag, text, ok
	`, ast.Context{})
	require.NoError(t, err)

	values, err := eval.New().Exec(ctx, block, env, nil)
	require.NoError(t, err)
	assert.Equal(t, []eval.Value{"index,notes", "home", "hello", false}, values)
}
