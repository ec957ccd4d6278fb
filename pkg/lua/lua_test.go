package lua_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, err := lua.Parse(src, ast.Context{})
	require.NoError(t, err)
	require.NotNil(t, block)
	return block
}

func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	expr, err := lua.ParseExpression(src, ast.Context{})
	require.NoError(t, err)
	return expr
}

// single returns the only statement of a chunk.
func single[T ast.Statement](t *testing.T, src string) T {
	t.Helper()
	block := parse(t, src)
	require.Len(t, block.Statements, 1)
	stmt, ok := block.Statements[0].(T)
	require.True(t, ok, "got %T", block.Statements[0])
	return stmt
}

func TestParseAssignment(t *testing.T) {
	stmt := single[*ast.Assignment](t, "x = 1")

	require.Len(t, stmt.Variables, 1)
	v, ok := stmt.Variables[0].(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name)

	require.Len(t, stmt.Expressions, 1)
	n, ok := stmt.Expressions[0].(*ast.Number)
	require.True(t, ok)
	assert.Equal(t, 1.0, n.Value)
}

func TestParseMultipleAssignmentKeepsListLengths(t *testing.T) {
	stmt := single[*ast.Assignment](t, "a, b.c, d[1] = 1")
	require.Len(t, stmt.Variables, 3)
	assert.IsType(t, &ast.Variable{}, stmt.Variables[0])
	assert.IsType(t, &ast.PropertyAccess{}, stmt.Variables[1])
	assert.IsType(t, &ast.TableAccess{}, stmt.Variables[2])
	assert.Len(t, stmt.Expressions, 1)
}

func TestParseIfClausesInOrder(t *testing.T) {
	src := "if a then x = 1 elseif b then x = 2 else x = 3 end"
	stmt := single[*ast.If](t, src)

	require.Len(t, stmt.Conditions, 2)
	names := []string{}
	for _, c := range stmt.Conditions {
		v, ok := c.Condition.(*ast.Variable)
		require.True(t, ok)
		names = append(names, v.Name)
		require.Len(t, c.Block.Statements, 1)
	}
	assert.Equal(t, []string{"a", "b"}, names)

	// clause spans cover the clause keyword
	assert.Equal(t, "if", stmt.Conditions[0].Slice(src))
	assert.Equal(t, "elseif", stmt.Conditions[1].Slice(src))

	require.NotNil(t, stmt.ElseBlock)
	require.Len(t, stmt.ElseBlock.Statements, 1)
	assign := stmt.ElseBlock.Statements[0].(*ast.Assignment)
	assert.Equal(t, 3.0, assign.Expressions[0].(*ast.Number).Value)
}

func TestParseIfWithoutElse(t *testing.T) {
	stmt := single[*ast.If](t, "if a then end")
	assert.Len(t, stmt.Conditions, 1)
	assert.Nil(t, stmt.ElseBlock)
}

func TestParsePropertyChainNestsLeft(t *testing.T) {
	expr := parseExpr(t, "a.b.c")

	outer, ok := expr.(*ast.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, "c", outer.Property)

	inner, ok := outer.Object.(*ast.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Property)

	root, ok := inner.Object.(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "a", root.Name)
}

func TestParseMixedAccessChain(t *testing.T) {
	expr := parseExpr(t, "a.b[c].d")

	d := expr.(*ast.PropertyAccess)
	assert.Equal(t, "d", d.Property)
	idx := d.Object.(*ast.TableAccess)
	assert.Equal(t, "c", idx.Key.(*ast.Variable).Name)
	b := idx.Object.(*ast.PropertyAccess)
	assert.Equal(t, "b", b.Property)
	assert.Equal(t, "a", b.Object.(*ast.Variable).Name)
}

func TestParseTableFields(t *testing.T) {
	expr := parseExpr(t, "{1, x=2, [k]=3}")

	table, ok := expr.(*ast.TableConstructor)
	require.True(t, ok)
	require.Len(t, table.Fields, 3)

	pos, ok := table.Fields[0].(*ast.ExpressionField)
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.Value.(*ast.Number).Value)

	named, ok := table.Fields[1].(*ast.PropField)
	require.True(t, ok)
	assert.Equal(t, "x", named.Key)
	assert.Equal(t, 2.0, named.Value.(*ast.Number).Value)

	dyn, ok := table.Fields[2].(*ast.DynamicField)
	require.True(t, ok)
	assert.Equal(t, "k", dyn.Key.(*ast.Variable).Name)
	assert.Equal(t, 3.0, dyn.Value.(*ast.Number).Value)
}

func TestParseEmptyTable(t *testing.T) {
	table := parseExpr(t, "{}").(*ast.TableConstructor)
	assert.Empty(t, table.Fields)
}

func TestParseNumericFor(t *testing.T) {
	noStep := single[*ast.For](t, "for i=1,10 do end")
	assert.Equal(t, "i", noStep.Name)
	assert.Equal(t, 1.0, noStep.Start.(*ast.Number).Value)
	assert.Equal(t, 10.0, noStep.End.(*ast.Number).Value)
	assert.Nil(t, noStep.Step)
	assert.Empty(t, noStep.Block.Statements)

	withStep := single[*ast.For](t, "for i=1,10,2 do end")
	require.NotNil(t, withStep.Step)
	assert.Equal(t, 2.0, withStep.Step.(*ast.Number).Value)
}

func TestParseGenericFor(t *testing.T) {
	stmt := single[*ast.ForIn](t, "for k, v in pairs(t) do print(k) end")
	assert.Equal(t, []string{"k", "v"}, stmt.Names)
	require.Len(t, stmt.Expressions, 1)
	assert.IsType(t, &ast.FunctionCall{}, stmt.Expressions[0])
	assert.Len(t, stmt.Block.Statements, 1)
}

func TestParseStringKeepsCommentMarkers(t *testing.T) {
	stmt := single[*ast.Assignment](t, `x = "a--b"`)
	s, ok := stmt.Expressions[0].(*ast.String)
	require.True(t, ok)
	assert.Equal(t, "a--b", s.Value)
}

func TestParseStringLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"a\nb"`, `a\nb`},
		{"[[long]]", "long"},
		{"[==[with ]] inside]==]", "with ]] inside"},
		{"[[\nfirst newline dropped]]", "first newline dropped"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s, ok := parseExpr(t, tt.src).(*ast.String)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Value)
		})
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"3.5", 3.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"2E-1", 0.2},
		{"0x10", 16},
		{"0xff", 255},
		{"0x1p4", 16},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, ok := parseExpr(t, tt.src).(*ast.Number)
			require.True(t, ok)
			assert.InDelta(t, tt.want, n.Value, 1e-9)
		})
	}
}

func TestParseLiterals(t *testing.T) {
	assert.Equal(t, true, parseExpr(t, "true").(*ast.Boolean).Value)
	assert.Equal(t, false, parseExpr(t, "false").(*ast.Boolean).Value)
	assert.IsType(t, &ast.Nil{}, parseExpr(t, "nil"))

	fn := single[*ast.Function](t, "function f(...) return ... end")
	ret := fn.Body.Block.Statements[0].(*ast.Return)
	assert.Equal(t, "...", ret.Expressions[0].(*ast.Variable).Name)
}

func TestParseOperators(t *testing.T) {
	// 1 + 2 * 3 groups the product first
	sum := parseExpr(t, "1 + 2 * 3").(*ast.Binary)
	assert.Equal(t, "+", sum.Operator)
	assert.Equal(t, "*", sum.Right.(*ast.Binary).Operator)

	// concatenation is right-associative
	cat := parseExpr(t, "a .. b .. c").(*ast.Binary)
	assert.Equal(t, "..", cat.Operator)
	assert.Equal(t, "a", cat.Left.(*ast.Variable).Name)
	assert.IsType(t, &ast.Binary{}, cat.Right)

	// subtraction is left-associative
	sub := parseExpr(t, "a - b - c").(*ast.Binary)
	assert.IsType(t, &ast.Binary{}, sub.Left)
	assert.Equal(t, "c", sub.Right.(*ast.Variable).Name)

	// unary binds tighter than binary, looser than ^
	neg := parseExpr(t, "-x ^ 2").(*ast.Unary)
	assert.Equal(t, "-", neg.Operator)
	assert.Equal(t, "^", neg.Argument.(*ast.Binary).Operator)

	not := parseExpr(t, "not a == b").(*ast.Binary)
	assert.Equal(t, "==", not.Operator)
	assert.Equal(t, "not", not.Left.(*ast.Unary).Operator)

	logic := parseExpr(t, "a or b and c").(*ast.Binary)
	assert.Equal(t, "or", logic.Operator)
	assert.Equal(t, "and", logic.Right.(*ast.Binary).Operator)

	length := parseExpr(t, "#t").(*ast.Unary)
	assert.Equal(t, "#", length.Operator)
}

func TestParseParenthesizedIsKept(t *testing.T) {
	p, ok := parseExpr(t, "(f())").(*ast.Parenthesized)
	require.True(t, ok)
	assert.IsType(t, &ast.FunctionCall{}, p.Expression)

	call := parseExpr(t, "(f or g)(1)").(*ast.FunctionCall)
	assert.IsType(t, &ast.Parenthesized{}, call.Prefix)
}

func TestParseFunctionCalls(t *testing.T) {
	call := single[*ast.FunctionCallStatement](t, "print(1, 'two', x)").Call
	assert.Equal(t, "print", call.Prefix.(*ast.Variable).Name)
	assert.Empty(t, call.Name)
	require.Len(t, call.Args, 3)
	assert.IsType(t, &ast.Number{}, call.Args[0])
	assert.IsType(t, &ast.String{}, call.Args[1])
	assert.IsType(t, &ast.Variable{}, call.Args[2])

	method := single[*ast.FunctionCallStatement](t, "obj.list:insert(4)").Call
	assert.Equal(t, "insert", method.Name)
	assert.IsType(t, &ast.PropertyAccess{}, method.Prefix)
	require.Len(t, method.Args, 1)

	empty := single[*ast.FunctionCallStatement](t, "f()").Call
	assert.Empty(t, empty.Args)

	str := single[*ast.FunctionCallStatement](t, `require "mod"`).Call
	require.Len(t, str.Args, 1)
	assert.Equal(t, "mod", str.Args[0].(*ast.String).Value)

	tbl := single[*ast.FunctionCallStatement](t, "f{1, 2}").Call
	require.Len(t, tbl.Args, 1)
	assert.Len(t, tbl.Args[0].(*ast.TableConstructor).Fields, 2)

	chained := single[*ast.FunctionCallStatement](t, "a.b(1)(2)").Call
	inner := chained.Prefix.(*ast.FunctionCall)
	assert.Equal(t, 1.0, inner.Args[0].(*ast.Number).Value)
}

func TestParseFunctionDeclarations(t *testing.T) {
	fn := single[*ast.Function](t, "function a.b.c:m(x, y) return x end")
	assert.Equal(t, []string{"a", "b", "c"}, fn.Name.PropNames)
	assert.Equal(t, "m", fn.Name.ColonName)
	assert.Equal(t, []string{"x", "y"}, fn.Body.Parameters)
	assert.False(t, fn.Body.IsVararg())
	assert.Len(t, fn.Body.Block.Statements, 1)

	local := single[*ast.LocalFunction](t, "local function f(a, ...) end")
	assert.Equal(t, "f", local.Name)
	assert.Equal(t, []string{"a", "..."}, local.Body.Parameters)
	assert.True(t, local.Body.IsVararg())

	anon := single[*ast.Local](t, "local g = function() end")
	def, ok := anon.Expressions[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	assert.Empty(t, def.Body.Parameters)
}

func TestParseLocal(t *testing.T) {
	stmt := single[*ast.Local](t, "local a <const>, b = 5")
	require.Len(t, stmt.Names, 2)
	assert.Equal(t, "a", stmt.Names[0].Name)
	assert.Equal(t, "const", stmt.Names[0].Attribute)
	assert.Equal(t, "b", stmt.Names[1].Name)
	assert.Empty(t, stmt.Names[1].Attribute)
	assert.Len(t, stmt.Expressions, 1)

	bare := single[*ast.Local](t, "local x")
	assert.Len(t, bare.Names, 1)
	assert.Empty(t, bare.Expressions)
}

func TestParseControlStatements(t *testing.T) {
	block := parse(t, `
::top::
while x do break end
repeat x = x - 1 until x < 0
do local y = 1 end
goto top
;`)
	require.Len(t, block.Statements, 6)

	assert.Equal(t, "top", block.Statements[0].(*ast.Label).Name)

	w := block.Statements[1].(*ast.While)
	assert.Equal(t, "x", w.Condition.(*ast.Variable).Name)
	assert.IsType(t, &ast.Break{}, w.Block.Statements[0])

	r := block.Statements[2].(*ast.Repeat)
	assert.Len(t, r.Block.Statements, 1)
	assert.Equal(t, "<", r.Condition.(*ast.Binary).Operator)

	scope := block.Statements[3].(*ast.Block)
	assert.IsType(t, &ast.Local{}, scope.Statements[0])

	assert.Equal(t, "top", block.Statements[4].(*ast.Goto).Name)
	assert.IsType(t, &ast.Semicolon{}, block.Statements[5])
}

func TestParseReturn(t *testing.T) {
	assert.Empty(t, single[*ast.Return](t, "return").Expressions)
	assert.Empty(t, single[*ast.Return](t, "return;").Expressions)
	assert.Len(t, single[*ast.Return](t, "return 1, 2;").Expressions, 2)
}

func TestParseSpansMatchOriginalSource(t *testing.T) {
	src := "--[[ header\ncomment ]]\nlocal total = price * qty -- line\nprint(total)"
	block := parse(t, src)

	local := block.Statements[0].(*ast.Local)
	assert.Equal(t, "local total = price * qty", local.Slice(src))
	assert.Equal(t, "price * qty", local.Expressions[0].Span().Slice(src))

	call := block.Statements[1].(*ast.FunctionCallStatement)
	assert.Equal(t, "print(total)", call.Slice(src))
	assert.Equal(t, "total", call.Call.Args[0].Span().Slice(src))
}

func TestParseContextReachesEveryNode(t *testing.T) {
	ctx := ast.NewContext(map[string]any{"ref": "index"})
	block, err := lua.Parse("if a then f{x = 1, [2] = g(3)} else return end", ctx)
	require.NoError(t, err)

	count := 0
	ast.Inspect(block, func(n ast.Node) bool {
		count++
		assert.Equal(t, "index", n.Span().Context.Text("ref"), "%T", n)
		return true
	})
	assert.Greater(t, count, 10)
}

func TestParseEmptyChunk(t *testing.T) {
	for _, src := range []string{"", "   \n", "-- only a comment"} {
		block := parse(t, src)
		assert.Empty(t, block.Statements, "input %q", src)
	}
}

func TestParseSyntaxErrorPosition(t *testing.T) {
	// line numbers count newlines inside the stripped block comment
	_, err := lua.Parse("--[[\n\n]]\nx = = 1", ast.Context{})
	require.Error(t, err)

	var se *grammar.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 4, se.Pos.Line)
	assert.Equal(t, 5, se.Pos.Column)
}

func TestParseUnterminatedComment(t *testing.T) {
	block, err := lua.Parse("x = 1 --[[ open", ast.Context{})
	assert.Nil(t, block)

	var ue *lua.UnterminatedConstructError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "block comment", ue.Construct)
}

func TestParseExpressionRejectsStatements(t *testing.T) {
	_, err := lua.ParseExpression("x = 1", ast.Context{})
	require.Error(t, err)
}

func TestParserWithGrammar(t *testing.T) {
	p := lua.New(lua.WithGrammar(grammar.Lua()))
	block, err := p.Parse("x = 1", ast.Context{})
	require.NoError(t, err)
	assert.Len(t, block.Statements, 1)

	root, err := p.CST("x = 1 -- c")
	require.NoError(t, err)
	assert.Equal(t, "Chunk", root.Type)
	assert.Equal(t, "Block", root.Children[0].Type)
}

func TestParseExpressionList(t *testing.T) {
	src := "x * 2, 'a', f(1)"
	exps, err := lua.ParseExpressionList(src, ast.Context{})
	require.NoError(t, err)
	require.Len(t, exps, 3)

	bin, ok := exps[0].(*ast.Binary)
	require.True(t, ok, "got %T", exps[0])
	assert.Equal(t, "*", bin.Operator)

	str, ok := exps[1].(*ast.String)
	require.True(t, ok, "got %T", exps[1])
	assert.Equal(t, "a", str.Value)
	assert.Equal(t, "'a'", src[str.From:str.To])

	_, ok = exps[2].(*ast.FunctionCall)
	assert.True(t, ok, "got %T", exps[2])

	one, err := lua.ParseExpressionList("1 -- note", ast.Context{})
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestParseExpressionListErrors(t *testing.T) {
	for _, src := range []string{"x = 1", "1,", "1 2", ""} {
		t.Run(src, func(t *testing.T) {
			exps, err := lua.ParseExpressionList(src, ast.Context{})
			require.Error(t, err)
			assert.Nil(t, exps)
		})
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"x = 1",
		"if a then return 1 elseif b then return 2 else return 3 end",
		"local t <const> = {1, x = 2, [k] = 3} -- tail",
		"for i = 1, 10, 2 do print(a.b.c[i]:m(...)) end",
		"function a.b:c(x, ...) return (x) end",
		"x = \"a--b\"",
		"--[[ unterminated",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		block, err := lua.Parse(src, ast.Context{})
		if err != nil {
			assert.Nil(t, block)
			return
		}
		require.NotNil(t, block)
		ast.Inspect(block, func(n ast.Node) bool {
			span := n.Span()
			require.True(t, 0 <= span.From && span.From <= span.To && span.To <= len(src),
				"%T span [%d,%d) of %d bytes", n, span.From, span.To, len(src))
			return true
		})
	})
}
