package space

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PageExtension is the file extension of pages on disk.
const PageExtension = ".md"

// DiskSpace stores each page as <root>/<name>.md. Page names may contain
// slashes, which become directories.
type DiskSpace struct {
	root string
}

// NewDiskSpace opens a directory as a space, creating it if needed.
func NewDiskSpace(root string) (*DiskSpace, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create space directory: %w", err)
	}
	return &DiskSpace{root: root}, nil
}

// Root returns the space directory.
func (s *DiskSpace) Root() string {
	return s.root
}

// PagePath returns the file path for a page name.
func (s *DiskSpace) PagePath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name)+PageExtension)
}

// PageName returns the page name for a file path under the root, or false
// when the path is not a page file.
func (s *DiskSpace) PageName(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || !strings.HasSuffix(rel, PageExtension) || strings.HasPrefix(rel, "..") {
		return "", false
	}
	name := filepath.ToSlash(strings.TrimSuffix(rel, PageExtension))
	if ValidatePageName(name) != nil {
		return "", false
	}
	return name, true
}

// ListPages implements Space.
func (s *DiskSpace) ListPages(ctx context.Context) ([]PageMeta, error) {
	var out []PageMeta
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		name, ok := s.PageName(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		meta := newMeta(name, string(data), info.ModTime(), info.ModTime())
		meta.Perm = perm(info)
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	slices.SortFunc(out, func(a, b PageMeta) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ReadPage implements Space.
func (s *DiskSpace) ReadPage(_ context.Context, name string) (*Page, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	path := s.PagePath(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat page %s: %w", name, err)
	}

	text := string(data)
	meta := newMeta(name, text, info.ModTime(), info.ModTime())
	meta.Perm = perm(info)
	return &Page{Meta: meta, Text: text}, nil
}

// WritePage implements Space.
func (s *DiskSpace) WritePage(_ context.Context, name, text string) (PageMeta, error) {
	name, err := cleanName(name)
	if err != nil {
		return PageMeta{}, err
	}

	path := s.PagePath(name)
	if info, err := os.Stat(path); err == nil && perm(info) == PermReadOnly {
		return PageMeta{}, fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return PageMeta{}, fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return PageMeta{}, fmt.Errorf("failed to write page %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to stat page %s: %w", name, err)
	}
	return newMeta(name, text, info.ModTime(), info.ModTime()), nil
}

// DeletePage implements Space.
func (s *DiskSpace) DeletePage(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(s.PagePath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", name, err)
	}
	return nil
}

// Close implements Space.
func (s *DiskSpace) Close() error {
	return nil
}

func perm(info fs.FileInfo) string {
	if info.Mode().Perm()&0o200 == 0 {
		return PermReadOnly
	}
	return PermReadWrite
}
