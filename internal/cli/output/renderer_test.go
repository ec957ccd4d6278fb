package output

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeText, false, ModeText},
		{ModeJSON, true, ModeJSON},
		{ModeMarkdown, true, ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestMarkdownOutput(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(1, "Pages")
	r.Success("done")
	r.Muted("quiet")
	r.StatusLine("a.lua", true, "")
	r.StatusLine("b.lua", false, "1:3: unexpected")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "# Pages\n\ndone\nquiet\n- [x] a.lua\n- [ ] b.lua: 1:3: unexpected\n", out.String())
	assert.Equal(t, "Warning: careful\nError: broken\n", errOut.String())
	assert.False(t, ansiPattern.MatchString(out.String()+errOut.String()))
}

func TestTextOutputWithoutColor(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)

	r.StatusLine("a.lua", true, "ok")
	r.Success("done")
	assert.Equal(t, "✓ a.lua ok\n✓ done\n", out.String())
}

func TestTable(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table([]string{"Name", "Size"}, [][]string{{"a", "1"}, {"b", "22"}})
		assert.Contains(t, out.String(), "| Name | Size |")
		assert.Contains(t, out.String(), "| a | 1 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table([]string{"Name"}, [][]string{{"a"}})
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "NAME")
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Title", FormatHeader(2, "Title"))
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "###### Deep", FormatHeader(9, "Deep"))
	assert.Equal(t, "- **Pages:** 3", FormatKeyValue("Pages", "3"))
}
