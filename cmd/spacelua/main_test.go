// Package main provides end-to-end tests for the spacelua CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/cli"
)

// run executes the CLI in a fresh working directory and returns stdout
// and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := cli.NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "spacelua v")
}

func TestHelpCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, name := range []string{"strip", "cst", "parse", "fmt", "check", "eval", "repl", "expand", "pages", "serve"} {
		assert.Contains(t, out, name)
	}
}

func TestParseCommand_JSON(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "parse", "-o", "json", "--ref", "notes", "-e", "x = 1")
	require.NoError(t, err)

	var node map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &node))
	assert.Equal(t, "Block", node["type"])
	ctx, ok := node["ctx"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "notes", ctx["ref"])
}

func TestParseCommand_SyntaxError(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "parse", "-e", "local = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(expr)")
}

func TestEvalCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "expression", args: []string{"eval", "-e", "1 + 2 * 3"}, want: "7\n"},
		{name: "string", args: []string{"eval", "-e", `"a" .. "b"`}, want: "\"ab\"\n"},
		{name: "expression list", args: []string{"eval", "-e", "1 + 1, 'x'"}, want: "2\n\"x\"\n"},
		{name: "chunk return", args: []string{"eval", "-e", "local x = 2 return x, x * 2"}, want: "2\n4\n"},
		{name: "json", args: []string{"eval", "-o", "json", "-e", "{1, 2}"}, want: "[\n  [\n    1,\n    2\n  ]\n]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, t.TempDir(), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.lua"), []byte("local x = 1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("if x then\n"), 0o600))

	out, _, err := run(t, dir, "check", "-o", "json", ".")
	require.Error(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "bad.lua", results[0]["file"])
	assert.Equal(t, false, results[0]["ok"])
	assert.Equal(t, "good.lua", results[1]["file"])
	assert.Equal(t, true, results[1]["ok"])
}

func TestPagesAndExpand(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes")

	_, _, err := run(t, dir, "--space", notes, "pages", "write", "footer", "--text", "made with ${1 + 1} hands")
	require.NoError(t, err)
	_, _, err = run(t, dir, "--space", notes, "pages", "write", "index", "--text", "# Home\n![[footer]]\n")
	require.NoError(t, err)

	out, _, err := run(t, dir, "--space", notes, "pages", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "footer"`)
	assert.Contains(t, out, `"name": "index"`)

	out, _, err = run(t, dir, "--space", notes, "expand", "index")
	require.NoError(t, err)
	assert.Equal(t, "# Home\nmade with 2 hands\n", out)

	_, _, err = run(t, dir, "--space", notes, "pages", "delete", "footer")
	require.NoError(t, err)
	_, _, err = run(t, dir, "--space", notes, "pages", "read", "footer")
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := "space:\n  backend: sqlite\n  path: pages.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spacelua.yaml"), []byte(cfg), 0o600))

	_, _, err := run(t, dir, "pages", "write", "a", "--text", "one")
	require.NoError(t, err)
	_, _, err = run(t, dir, "pages", "write", "a", "--text", "two")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "pages.db"))

	out, _, err := run(t, dir, "pages", "history", "a", "-o", "json")
	require.NoError(t, err)
	var revisions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &revisions))
	assert.Len(t, revisions, 2)
}
