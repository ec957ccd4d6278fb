package space

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Space {
	t.Helper()
	dir := t.TempDir()

	disk, err := NewDiskSpace(filepath.Join(dir, "pages"))
	require.NoError(t, err)
	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	bolt, err := OpenBolt(filepath.Join(dir, "space.db"))
	require.NoError(t, err)

	backends := map[string]Space{
		BackendMemory: NewMemorySpace(),
		BackendDisk:   disk,
		BackendSQLite: sqlite,
		BackendBolt:   bolt,
	}
	t.Cleanup(func() {
		for _, s := range backends {
			_ = s.Close()
		}
	})
	return backends
}

func TestSpace_Conformance(t *testing.T) {
	ctx := context.Background()

	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			pages, err := s.ListPages(ctx)
			require.NoError(t, err)
			assert.Empty(t, pages)

			_, err = s.ReadPage(ctx, "missing")
			assert.ErrorIs(t, err, ErrPageNotFound)

			meta, err := s.WritePage(ctx, "notes/today", "---\ntags: [a, b]\n---\nhello")
			require.NoError(t, err)
			assert.Equal(t, "notes/today", meta.Name)
			assert.Equal(t, PermReadWrite, meta.Perm)
			assert.Equal(t, []any{"a", "b"}, meta.Attributes["tags"])

			_, err = s.WritePage(ctx, "  index ", "# Index")
			require.NoError(t, err)

			page, err := s.ReadPage(ctx, "index")
			require.NoError(t, err)
			assert.Equal(t, "# Index", page.Text)
			assert.Equal(t, "index", page.Meta.Name)

			_, err = s.WritePage(ctx, "index", "# Index v2")
			require.NoError(t, err)
			page, err = s.ReadPage(ctx, "index")
			require.NoError(t, err)
			assert.Equal(t, "# Index v2", page.Text)

			pages, err = s.ListPages(ctx)
			require.NoError(t, err)
			require.Len(t, pages, 2)
			assert.Equal(t, "index", pages[0].Name)
			assert.Equal(t, "notes/today", pages[1].Name)

			require.NoError(t, s.DeletePage(ctx, "index"))
			assert.ErrorIs(t, s.DeletePage(ctx, "index"), ErrPageNotFound)
			_, err = s.ReadPage(ctx, "index")
			assert.ErrorIs(t, err, ErrPageNotFound)

			_, err = s.WritePage(ctx, "image.png", "x")
			assert.ErrorIs(t, err, ErrInvalidPageName)
			_, err = s.ReadPage(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidPageName)
		})
	}
}

func TestSpace_UnicodeNamesNormalize(t *testing.T) {
	ctx := context.Background()

	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			// "e" + combining acute accent, stored and read back as NFC
			_, err := s.WritePage(ctx, "cafe\u0301", "coffee")
			require.NoError(t, err)

			page, err := s.ReadPage(ctx, "caf\u00e9")
			require.NoError(t, err)
			assert.Equal(t, "caf\u00e9", page.Meta.Name)
		})
	}
}

func TestMemorySpace_KeepsCreated(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySpace()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := start
	s.now = func() time.Time {
		tick = tick.Add(time.Hour)
		return tick
	}

	first, err := s.WritePage(ctx, "p", "one")
	require.NoError(t, err)
	second, err := s.WritePage(ctx, "p", "two")
	require.NoError(t, err)

	assert.Equal(t, first.Created, second.Created)
	assert.True(t, second.LastModified.After(first.LastModified))
}

func TestBoltSpace_KeepsCreated(t *testing.T) {
	ctx := context.Background()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "space.db"))
	require.NoError(t, err)
	defer s.Close()

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	first, err := s.WritePage(ctx, "p", "one")
	require.NoError(t, err)
	_, err = s.WritePage(ctx, "p", "two")
	require.NoError(t, err)

	page, err := s.ReadPage(ctx, "p")
	require.NoError(t, err)
	assert.True(t, first.Created.Equal(page.Meta.Created))
	assert.True(t, page.Meta.LastModified.After(first.LastModified))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr string
	}{
		{name: "default is disk", cfg: Config{Path: filepath.Join(dir, "d1")}, want: &DiskSpace{}},
		{name: "disk", cfg: Config{Backend: BackendDisk, Path: filepath.Join(dir, "d2")}, want: &DiskSpace{}},
		{name: "sqlite", cfg: Config{Backend: BackendSQLite, Path: ":memory:"}, want: &SQLiteSpace{}},
		{name: "bolt", cfg: Config{Backend: BackendBolt, Path: filepath.Join(dir, "b.db")}, want: &BoltSpace{}},
		{name: "memory", cfg: Config{Backend: BackendMemory}, want: &MemorySpace{}},
		{name: "unknown", cfg: Config{Backend: "s3"}, wantErr: `unknown space backend "s3"`},
		{name: "bolt without path", cfg: Config{Backend: BackendBolt}, wantErr: "requires a path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestDiskSpace_PageName(t *testing.T) {
	s, err := NewDiskSpace(t.TempDir())
	require.NoError(t, err)

	name, ok := s.PageName(s.PagePath("a/b"))
	assert.True(t, ok)
	assert.Equal(t, "a/b", name)

	_, ok = s.PageName(filepath.Join(s.Root(), "image.png"))
	assert.False(t, ok)
	_, ok = s.PageName(filepath.Join(filepath.Dir(s.Root()), "outside.md"))
	assert.False(t, ok)
}

func TestDiskSpace_SkipsHiddenDirs(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskSpace(t.TempDir())
	require.NoError(t, err)

	_, err = s.WritePage(ctx, "visible", "x")
	require.NoError(t, err)
	hidden := filepath.Join(s.Root(), ".trash")
	require.NoError(t, os.MkdirAll(hidden, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "gone.md"), []byte("y"), 0o600))

	pages, err := s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "visible", pages[0].Name)
}
