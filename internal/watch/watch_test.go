package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/spacelua/internal/testutil"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		path       string
		want       bool
	}{
		{"no filter", nil, "a/b.txt", true},
		{"matching extension", []string{".lua"}, "a/b.lua", true},
		{"other extension", []string{".lua"}, "a/b.md", false},
		{"one of several", []string{".lua", ".md"}, "page.md", true},
		{"hidden file", nil, "a/.b.lua", false},
		{"editor swap file", []string{".lua"}, "a/b.lua.swp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(nil, Options{Extensions: tt.extensions})
			assert.Equal(t, tt.want, w.Match(tt.path))
		})
	}
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) handle(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestRun_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w := New([]string{dir}, Options{
		Extensions: []string{".lua"},
		Debounce:   50 * time.Millisecond,
		Logger:     testutil.NewTestLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handle) }()

	// give the watcher time to register its directories
	time.Sleep(100 * time.Millisecond)

	a := filepath.Join(dir, "a.lua")
	b := filepath.Join(sub, "b.lua")
	require.NoError(t, os.WriteFile(a, []byte("x = 1"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("y = 2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("#"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("x = 3"), 0o644))

	seen := func() []string {
		var all []string
		for _, batch := range rec.snapshot() {
			all = append(all, batch...)
		}
		return all
	}
	require.Eventually(t, func() bool {
		all := seen()
		return slices.Contains(all, a) && slices.Contains(all, b)
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, seen(), filepath.Join(dir, "notes.md"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_MissingPath(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, Options{})
	err := w.Run(context.Background(), func(context.Context, []string) {})
	assert.Error(t, err)
}

func TestRun_FileSurvivesRenameSave(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.lua")
	sibling := filepath.Join(dir, "other.lua")
	require.NoError(t, os.WriteFile(target, []byte("x = 1"), 0o644))

	w := New([]string{target}, Options{
		Extensions: []string{".lua"},
		Debounce:   30 * time.Millisecond,
		Logger:     testutil.NewTestLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	go func() { _ = w.Run(ctx, rec.handle) }()
	time.Sleep(100 * time.Millisecond)

	// save the way editors do: write a temp file and rename it over the target
	save := func(content string) {
		tmp := filepath.Join(dir, ".main.lua.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
		require.NoError(t, os.Rename(tmp, target))
	}
	batches := func() int { return len(rec.snapshot()) }

	save("x = 2")
	require.Eventually(t, func() bool { return batches() >= 1 }, 2*time.Second, 10*time.Millisecond)

	first := batches()
	save("x = 3")
	require.Eventually(t, func() bool { return batches() > first }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(sibling, []byte("y = 1"), 0o644))
	time.Sleep(150 * time.Millisecond)
	for _, batch := range rec.snapshot() {
		assert.Equal(t, []string{target}, batch)
	}
}
