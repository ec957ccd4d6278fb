package format

import (
	"math"
	"strings"
	"testing"

	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, err := lua.Parse(src, ast.Context{})
	require.NoError(t, err)
	return block
}

func TestFormat_Statements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "assignment",
			input:    "x=1",
			expected: "x = 1\n",
		},
		{
			name:     "local with attribute",
			input:    "local a<const>,b=1,'two'",
			expected: "local a <const>, b = 1, \"two\"\n",
		},
		{
			name:  "if chain",
			input: "if a then x=1 elseif b then x=2 else x=3 end",
			expected: `if a then
  x = 1
elseif b then
  x = 2
else
  x = 3
end
`,
		},
		{
			name:     "empty loop bodies",
			input:    "for i=1,10 do end while true do end",
			expected: "for i = 1, 10 do end\nwhile true do end\n",
		},
		{
			name:  "generic for",
			input: "for k,v in pairs(t) do print(k,v) end",
			expected: `for k, v in pairs(t) do
  print(k, v)
end
`,
		},
		{
			name:  "function declarations",
			input: "function a.b:c(x,...) return x end local function f() end",
			expected: `function a.b:c(x, ...)
  return x
end
local function f() end
`,
		},
		{
			name:  "repeat and labels",
			input: "::top:: repeat n=n-1 until n<=0 goto top",
			expected: `::top::
repeat
  n = n - 1
until n <= 0
goto top
`,
		},
		{
			name:  "nested do",
			input: "do do break end end",
			expected: `do
  do
    break
  end
end
`,
		},
		{
			name:     "tables and calls",
			input:    "t={1,x=2,['k']=f{}} obj:m(t[1],t.x)",
			expected: "t = {1, x = 2, [\"k\"] = f({})}\nobj:m(t[1], t.x)\n",
		},
		{
			name:  "anonymous function",
			input: "f(function(a) return a end)",
			expected: `f(function(a)
  return a
end)
`,
		},
		{
			name:     "parentheses kept",
			input:    "x=(f())",
			expected: "x = (f())\n",
		},
		{
			name:     "empty chunk",
			input:    "  -- nothing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(mustParse(t, tt.input)))
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		"local x = -(-1) .. 'a' .. (b .. c)",
		"return not a == b, #t + 1, 2 ^ -3, (a or b) and c",
		"if x then return end",
		"t[i], t.n = t.n, nil",
		"s = [[\nline one\nline two]]",
	}
	for _, src := range inputs {
		first := Format(mustParse(t, src))
		second := Format(mustParse(t, first))
		assert.Equal(t, first, second, "input %q", src)
	}
}

func TestExpression_InsertsNeededParentheses(t *testing.T) {
	num := func(v float64) ast.Expression { return &ast.Number{Value: v} }
	bin := func(op string, l, r ast.Expression) ast.Expression {
		return &ast.Binary{Operator: op, Left: l, Right: r}
	}

	tests := []struct {
		name     string
		expr     ast.Expression
		expected string
	}{
		{"lower precedence on the left", bin("*", bin("+", num(1), num(2)), num(3)), "(1 + 2) * 3"},
		{"higher precedence needs none", bin("+", num(1), bin("*", num(2), num(3))), "1 + 2 * 3"},
		{"left associative right operand", bin("-", num(1), bin("-", num(2), num(3))), "1 - (2 - 3)"},
		{"right associative left operand", bin("^", bin("^", num(2), num(3)), num(2)), "(2 ^ 3) ^ 2"},
		{"right associative chain", bin("..", num(1), bin("..", num(2), num(3))), "1 .. 2 .. 3"},
		{"unary under power", bin("^", &ast.Unary{Operator: "-", Argument: num(2)}, num(2)), "(-2) ^ 2"},
		{"binary under unary", &ast.Unary{Operator: "not", Argument: bin("==", num(1), num(2))}, "not (1 == 2)"},
		{"double negation", &ast.Unary{Operator: "-", Argument: &ast.Unary{Operator: "-", Argument: num(1)}}, "- -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expression(tt.expr))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, quote("plain"))
	assert.Equal(t, `'say "hi"'`, quote(`say "hi"`))
	assert.Equal(t, `[[both " and ']]`, quote(`both " and '`))
	assert.Equal(t, "[[a\nb]]", quote("a\nb"))
	assert.Equal(t, "[=[x]]\ny]=]", quote("x]]\ny"))
	assert.Equal(t, "[[\n\nlead]]", quote("\nlead"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "42", formatNumber(42))
	assert.Equal(t, "-3", formatNumber(-3))
	assert.Equal(t, "0.5", formatNumber(0.5))
	assert.Equal(t, "1e+20", formatNumber(1e20))
	assert.Equal(t, "math.huge", formatNumber(math.Inf(1)))
}

func TestWithComments(t *testing.T) {
	src := `-- setup
local x = 1 -- one
if x then
  -- inside
  print(x)
end
-- trailing`
	comments, err := lua.Comments(src)
	require.NoError(t, err)

	got := WithComments(mustParse(t, src), comments, src)
	assert.Equal(t, `-- setup
local x = 1 -- one
if x then
  -- inside
  print(x)
end
-- trailing
`, got)
}

func TestTree(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Tree(&sb, mustParse(t, "x = a.b + 1")))
	assert.Equal(t, `Block [0,11)
  Assignment [0,11)
    Variable x [0,1)
    Binary + [4,11)
      PropertyAccess .b [4,7)
        Variable a [4,5)
      Number 1 [10,11)
`, sb.String())
}
