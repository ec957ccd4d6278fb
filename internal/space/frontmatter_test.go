package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter(t *testing.T) {
	fm, err := ExtractFrontmatter("---\ntitle: Home\ncount: 3\n---\n# Body\n")
	require.NoError(t, err)
	assert.True(t, fm.HasYAML)
	assert.Equal(t, "Home", fm.Attributes["title"])
	assert.Equal(t, 3, fm.Attributes["count"])
	assert.Equal(t, "# Body\n", fm.Body)

	fm, err = ExtractFrontmatter("no header\n---\n")
	require.NoError(t, err)
	assert.False(t, fm.HasYAML)
	assert.Equal(t, "no header\n---\n", fm.Body)

	fm, err = ExtractFrontmatter("---\n\n---\nbody")
	require.NoError(t, err)
	assert.True(t, fm.HasYAML)
	assert.Empty(t, fm.Attributes)
	assert.Equal(t, "body", fm.Body)

	_, err = ExtractFrontmatter("---\n: [bad\n---\n")
	assert.Error(t, err)
}

func TestAttributes(t *testing.T) {
	assert.Nil(t, Attributes("plain"))
	assert.Nil(t, Attributes("---\n: [bad\n---\n"))
	assert.Equal(t, map[string]any{"a": "b"}, Attributes("---\na: b\n---"))
}
