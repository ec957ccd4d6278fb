package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/eval"
)

func row(pairs ...any) *eval.Table {
	t := eval.NewTable()
	for i := 0; i < len(pairs); i += 2 {
		t.SetField(pairs[i].(string), pairs[i+1])
	}
	return t
}

func TestRenderResult(t *testing.T) {
	tests := []struct {
		name  string
		value eval.Value
		want  string
	}{
		{"nil", nil, ""},
		{"string", "text", "text"},
		{"integer", 42.0, "42"},
		{"float", 1.5, "1.5"},
		{"boolean", false, "false"},
		{"empty table", eval.NewTable(), ""},
		{"scalar list", eval.NewArray("a", 2.0, true), "a, 2, true"},
		{
			"rows",
			eval.NewArray(row("name", "x", "size", 1.0), row("name", "y", "extra", "z")),
			"| name | size | extra |\n| --- | --- | --- |\n| x | 1 |  |\n| y |  | z |\n",
		},
		{
			"record",
			row("title", "Home", "tags", eval.NewArray("a", "b")),
			"| title | tags |\n| --- | --- |\n| Home | a, b |\n",
		},
		{
			"cells escaped",
			eval.NewArray(row("v", "a|b\nc")),
			"| v |\n| --- |\n| a\\|b c |\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderResult(tt.value))
		})
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown(`<h1>Title</h1><style>p{color:red}</style><p>Some <em>text</em></p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "*text*")
	assert.NotContains(t, md, "alert")
	assert.NotContains(t, md, "color")
}

func TestWidgetContent_ToMarkdown(t *testing.T) {
	var empty *WidgetContent
	md, err := empty.toMarkdown()
	require.NoError(t, err)
	assert.Empty(t, md)

	md, err = (&WidgetContent{Markdown: "md", HTML: "<p>html</p>"}).toMarkdown()
	require.NoError(t, err)
	assert.Equal(t, "md", md)

	md, err = (&WidgetContent{HTML: "<p>html</p>"}).toMarkdown()
	require.NoError(t, err)
	assert.Equal(t, "html", md)
}

func TestSection(t *testing.T) {
	body := "intro\n# A\none\n## A.1\ntwo\n# B\nthree"

	got, ok := Section(body, "a")
	require.True(t, ok)
	assert.Equal(t, "# A\none\n## A.1\ntwo\n", got)

	got, ok = Section(body, "A.1")
	require.True(t, ok)
	assert.Equal(t, "## A.1\ntwo\n", got)

	_, ok = Section(body, "C")
	assert.False(t, ok)

	_, ok = Section("#NoSpace\n", "NoSpace")
	assert.False(t, ok)
}
