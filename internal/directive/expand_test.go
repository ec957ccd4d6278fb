package directive_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/directive"
	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/internal/testutil"
)

func setupTestSpace(t *testing.T, pages map[string]string) space.Space {
	t.Helper()
	sp := space.NewMemorySpace()
	for name, text := range pages {
		_, err := sp.WritePage(context.Background(), name, text)
		require.NoError(t, err)
	}
	return sp
}

func expand(t *testing.T, x *directive.Expander, text string) string {
	t.Helper()
	out, err := x.Expand(context.Background(), text, eval.NewGlobalEnv())
	require.NoError(t, err)
	return out
}

func TestExpand_Directives(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no directives", "# Title\n\nplain text\n", "# Title\n\nplain text\n"},
		{"arithmetic", "Total: ${1 + 2}!", "Total: 3!"},
		{"string", `${"a" .. "b"}`, "ab"},
		{"nil renders nothing", "[${nil}]", "[]"},
		{"boolean", "${1 < 2}", "true"},
		{"escapes decoded", `${"x\ty"}`, "x\ty"},
		{"list", "${ {1, 2, 3} }", "1, 2, 3"},
		{"empty list", "[${ {} }]", "[]"},
		{"markdown field", `${ {markdown = "**bold**"} }`, "**bold**"},
		{
			"list of rows",
			`${ {{name = "a", n = 1}, {name = "b", n = 2}} }`,
			"| name | n |\n| --- | --- |\n| a | 1 |\n| b | 2 |\n",
		},
		{"code span untouched", "`${1 + 1}`", "`${1 + 1}`"},
		{"fence untouched", "```lua\nprint(${x})\n```\n", "```lua\nprint(${x})\n```\n"},
		{"function call", `${string.upper("hi")}`, "HI"},
		{"immediate function", "${(function() return 40 + 2 end)()}", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand(t, &directive.Expander{}, tt.input))
		})
	}
}

func TestExpand_DirectiveErrorsAreInline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{"runtime error", "a ${missing()} b", []string{"a **Error:** ", "attempt to call a nil value", " b"}},
		{"parse error", "${1 +}", []string{"**Error:** 1:1"}},
		{"unclosed", "x ${ y", []string{"x **Error:** ", "unclosed directive", " y"}},
		{"error call", `${error("boom")}`, []string{"**Error:**", "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := expand(t, &directive.Expander{}, tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestExpand_RuntimeErrorsReportDocumentLine(t *testing.T) {
	out := expand(t, &directive.Expander{}, "intro\n\n${missing()}")
	assert.Contains(t, out, "**Error:** 3:1: ")
	assert.Contains(t, out, "(at line 3)")
	assert.NotContains(t, out, "offset")

	sp := setupTestSpace(t, map[string]string{"inc": "first\n${nope()}"})
	out = expand(t, &directive.Expander{Space: sp}, "![[inc]]")
	assert.Contains(t, out, "(at inc:2)")
}

func TestExpand_LogsFailuresAndTransclusions(t *testing.T) {
	logger, rec := testutil.NewLogRecorder()
	sp := setupTestSpace(t, map[string]string{"inc": "included"})
	x := &directive.Expander{Space: sp, Logger: logger}

	out := expand(t, x, "![[inc]] ${nope()}")
	assert.True(t, strings.HasPrefix(out, "included **Error:**"))

	assert.Equal(t, []string{"transcluding page", "directive failed"}, rec.Messages())
	page, ok := rec.Attr("transcluding page", "page")
	require.True(t, ok)
	assert.Equal(t, "inc", page.String())
	expr, ok := rec.Attr("directive failed", "expr")
	require.True(t, ok)
	assert.Equal(t, "nope()", expr.String())
}

func TestExpand_UsesEnvironment(t *testing.T) {
	env := eval.NewGlobalEnv()
	env.Define("name", "World")

	out, err := (&directive.Expander{}).Expand(context.Background(), "Hello ${name}", env)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestExpand_SpaceBindings(t *testing.T) {
	sp := setupTestSpace(t, map[string]string{"a": "x", "b": "y"})
	env := eval.NewGlobalEnv()
	eval.BindSpace(env, sp)

	out, err := (&directive.Expander{Space: sp}).Expand(context.Background(), "${#space.listPages()} pages", env)
	require.NoError(t, err)
	assert.Equal(t, "2 pages", out)
}

func TestExpand_Transclusion(t *testing.T) {
	sp := setupTestSpace(t, map[string]string{
		"inc":     "Included ${1 + 1}",
		"fm":      "---\ntags: a\n---\nBody",
		"outer":   "[![[inner]]]",
		"inner":   "deep",
		"doc":     "# Intro\nhello\n## Sub\nsub text\n# Other\nx\n",
		"offsets": "0123456789",
	})
	x := &directive.Expander{Space: sp}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Before ![[inc]] after", "Before Included 2 after"},
		{"frontmatter stripped", "![[fm]]", "Body"},
		{"nested", "![[outer]]", "[deep]"},
		{"header section", "![[doc#Sub]]", "## Sub\nsub text\n"},
		{"last section", "![[doc#Other]]", "# Other\nx\n"},
		{"position", "![[offsets@7]]", "789"},
		{"not a page", "![[image.png]]", "![[image.png]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand(t, x, tt.input))
		})
	}
}

func TestExpand_TransclusionErrors(t *testing.T) {
	sp := setupTestSpace(t, map[string]string{
		"a":  "A ![[b]]",
		"b":  "B ![[a]]",
		"p1": "![[p2]]",
		"p2": "![[p3]]",
		"p3": "![[p4]]",
		"p4": "end",
		"h":  "# One\n",
	})

	tests := []struct {
		name     string
		maxDepth int
		input    string
		contains string
	}{
		{"missing page", 0, "![[nowhere]]", "cannot embed nowhere: page not found"},
		{"cycle", 0, "![[a]]", "transclusion cycle: a -> b -> a"},
		{"depth limit", 2, "![[p1]]", "transclusion depth exceeds 2"},
		{"missing header", 0, "![[h#Two]]", `header "Two" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := &directive.Expander{Space: sp, MaxDepth: tt.maxDepth}
			out := expand(t, x, tt.input)
			assert.Contains(t, out, "**Error:**")
			assert.Contains(t, out, tt.contains)
		})
	}

	t.Run("depth within limit", func(t *testing.T) {
		assert.Equal(t, "end", expand(t, &directive.Expander{Space: sp}, "![[p1]]"))
	})

	t.Run("no space", func(t *testing.T) {
		out := expand(t, &directive.Expander{}, "![[a]]")
		assert.Contains(t, out, "no space to read pages from")
	})
}

func TestExpandPage(t *testing.T) {
	sp := setupTestSpace(t, map[string]string{
		"home": "---\ntitle: Home\n---\nSum ${1 + 1} ![[home]]",
	})
	x := &directive.Expander{Space: sp}

	out, err := x.ExpandPage(context.Background(), "home", eval.NewGlobalEnv())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Sum 2 **Error:**"), out)
	assert.Contains(t, out, "transclusion cycle: home -> home")

	_, err = x.ExpandPage(context.Background(), "missing", eval.NewGlobalEnv())
	assert.ErrorIs(t, err, space.ErrPageNotFound)
}

func TestExpand_Widgets(t *testing.T) {
	x := &directive.Expander{}
	x.Register("upper", directive.WidgetFunc(func(_ context.Context, body string, _ *eval.Env) (*directive.WidgetContent, error) {
		return &directive.WidgetContent{Markdown: strings.ToUpper(body)}, nil
	}))
	x.Register("html", directive.WidgetFunc(func(_ context.Context, body string, _ *eval.Env) (*directive.WidgetContent, error) {
		return &directive.WidgetContent{HTML: body}, nil
	}))
	x.Register("fail", directive.WidgetFunc(func(context.Context, string, *eval.Env) (*directive.WidgetContent, error) {
		return nil, errors.New("bad body")
	}))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"markdown widget", "```upper\nhi\n```\nend", "HI\nend"},
		{"html widget", "```html\n<p>hello <strong>world</strong></p><script>x()</script>\n```\n", "hello **world**\n"},
		{"failing widget", "```fail\nx\n```\n", "**Error:** 1:1: widget fail failed: bad body\n"},
		{"unknown language", "```other\nx\n```\n", "```other\nx\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand(t, x, tt.input))
		})
	}
}

func TestExpand_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&directive.Expander{}).Expand(ctx, "text ${1}", eval.NewGlobalEnv())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpand_LuaWidget(t *testing.T) {
	x := &directive.Expander{}
	x.Register("space-lua", directive.LuaWidget(nil))

	input := "```space-lua\nfunction greet(n) return \"hi \" .. n end\n```\n${greet(\"bob\")}"
	assert.Equal(t, "hi bob", expand(t, x, input))

	input = "```space-lua\nreturn {markdown = \"*x*\"}\n```\n"
	assert.Equal(t, "*x*\n", expand(t, x, input))

	input = "```space-lua\nreturn {{a = 1}}\n```\n"
	assert.Equal(t, "| a |\n| --- |\n| 1 |\n", expand(t, x, input))

	out := expand(t, x, "```space-lua\nerror(\"nope\")\n```\n")
	assert.Contains(t, out, "widget space-lua failed")
	assert.Contains(t, out, "nope")
}
