// Package space stores the markdown pages that scripts read and that
// transclusions pull in.
//
// Every backend implements Space. Page names are normalized to NFC and
// validated before they reach a backend.
package space

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	ErrPageNotFound    = errors.New("page not found")
	ErrInvalidPageName = errors.New("invalid page name")
	ErrReadOnly        = errors.New("page is read-only")
)

// Permissions reported in PageMeta.Perm.
const (
	PermReadWrite = "rw"
	PermReadOnly  = "ro"
)

// PageMeta describes a stored page.
type PageMeta struct {
	Name         string         `json:"name"`
	Created      time.Time      `json:"created"`
	LastModified time.Time      `json:"lastModified"`
	Perm         string         `json:"perm"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// Page is a page with its text.
type Page struct {
	Meta PageMeta `json:"meta"`
	Text string   `json:"text"`
}

// Space is a page store.
type Space interface {
	// ListPages returns all pages sorted by name.
	ListPages(ctx context.Context) ([]PageMeta, error)
	// ReadPage returns a page or an error wrapping ErrPageNotFound.
	ReadPage(ctx context.Context, name string) (*Page, error)
	// WritePage creates or replaces a page.
	WritePage(ctx context.Context, name, text string) (PageMeta, error)
	// DeletePage removes a page or returns an error wrapping ErrPageNotFound.
	DeletePage(ctx context.Context, name string) error
	// Close releases the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Backends lists the backend names in display order.
func Backends() []string {
	return []string{BackendDisk, BackendSQLite, BackendBolt, BackendMemory}
}

// Config selects and locates a backend.
type Config struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// Open opens the backend named by cfg.Backend.
func Open(cfg Config) (Space, error) {
	switch cfg.Backend {
	case BackendDisk, "":
		return NewDiskSpace(cfg.Path)
	case BackendSQLite:
		return OpenSQLite(cfg.Path)
	case BackendBolt:
		return OpenBolt(cfg.Path)
	case BackendMemory:
		return NewMemorySpace(), nil
	default:
		return nil, fmt.Errorf("unknown space backend %q (expected one of disk, sqlite, bolt, memory)", cfg.Backend)
	}
}

// notFound wraps ErrPageNotFound with the page name.
func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrPageNotFound, name)
}

// newMeta builds metadata for text written at t.
func newMeta(name, text string, created, modified time.Time) PageMeta {
	return PageMeta{
		Name:         name,
		Created:      created.UTC(),
		LastModified: modified.UTC(),
		Perm:         PermReadWrite,
		Attributes:   Attributes(text),
	}
}
