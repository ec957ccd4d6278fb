// Package testutil holds fixtures for command tests: files on disk, a
// populated page space and a renderer with captured output.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/internal/space"
)

// WriteFile creates dir/name, including parent directories, and returns
// its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// SetupTestSpace writes pages into a fresh disk space and returns the
// space directory. The space is closed before returning.
func SetupTestSpace(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "space")
	sp, err := space.NewDiskSpace(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, sp.Close()) }()

	for name, text := range pages {
		_, err := sp.WritePage(context.Background(), name, text)
		require.NoError(t, err)
	}
	return dir
}

// Capture is a Renderer whose stdout and stderr land in buffers.
type Capture struct {
	*output.Renderer
	Out    bytes.Buffer
	ErrOut bytes.Buffer
}

// NewCapture returns a Capture in mode. tty controls how ModeAuto resolves.
func NewCapture(mode output.Mode, tty bool) *Capture {
	c := &Capture{}
	c.Renderer = output.NewRendererWithTTY(&c.Out, &c.ErrOut, tty, mode)
	return c
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// RequireNoANSI fails t when s carries terminal escape sequences.
func RequireNoANSI(t *testing.T, s string) {
	t.Helper()
	require.False(t, ansiEscape.MatchString(s), "unexpected ANSI escapes in %q", s)
}
