// Package watch reports batches of changed files under a set of paths.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more events before
// reporting a batch.
const DefaultDebounce = 100 * time.Millisecond

// Handler is called with the sorted, de-duplicated paths changed in one batch.
type Handler func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	// Extensions limits events to files with these extensions (".lua").
	// Empty means every file.
	Extensions []string
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Watcher watches files and directories, recursing into directories.
// A file is watched through its parent directory so that editors which save
// by writing a temporary file and renaming it over the original keep being
// observed.
type Watcher struct {
	paths      []string
	extensions []string
	debounce   time.Duration
	logger     *slog.Logger

	// set up by Run; only read on its goroutine
	roots []string
	files map[string]struct{}

	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a watcher for paths.
func New(paths []string, opts Options) *Watcher {
	w := &Watcher{
		paths:      paths,
		extensions: opts.Extensions,
		debounce:   opts.Debounce,
		logger:     opts.Logger,
		pending:    make(map[string]struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	return w
}

// Run watches until ctx is cancelled. handler runs on a single goroutine,
// never concurrently with itself.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	w.roots, w.files = nil, make(map[string]struct{})
	for _, p := range w.paths {
		if err := w.add(watcher, p); err != nil {
			return err
		}
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !hidden(event.Name) && w.underRoot(event.Name) {
					if err := addRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.inScope(event.Name) || !w.Match(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = struct{}{}
			w.mu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			paths := w.drain()
			if len(paths) == 0 {
				continue
			}
			w.logger.Debug("files changed", "count", len(paths))
			handler(ctx, paths)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Match reports whether path passes the extension filter.
func (w *Watcher) Match(path string) bool {
	if hidden(path) {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return slices.Contains(w.extensions, filepath.Ext(path))
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	slices.Sort(paths)
	return paths
}

// add registers path: a directory recursively, a file through its parent.
func (w *Watcher) add(watcher *fsnotify.Watcher, path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		w.roots = append(w.roots, path)
		return addRecursive(watcher, path)
	}
	w.files[path] = struct{}{}
	return watcher.Add(filepath.Dir(path))
}

// inScope reports whether an event for name concerns a watched path. Events
// for siblings of a watched file are ignored.
func (w *Watcher) inScope(name string) bool {
	name = filepath.Clean(name)
	if _, ok := w.files[name]; ok {
		return true
	}
	return w.underRoot(name)
}

func (w *Watcher) underRoot(name string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, name)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addRecursive adds a directory and its subdirectories to the watcher.
// Hidden directories are skipped.
func addRecursive(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && hidden(p) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
