package space

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemorySpace keeps pages in memory. It is safe for concurrent use.
type MemorySpace struct {
	mu    sync.RWMutex
	pages map[string]Page
	now   func() time.Time
}

// NewMemorySpace creates an empty in-memory space.
func NewMemorySpace() *MemorySpace {
	return &MemorySpace{
		pages: make(map[string]Page),
		now:   time.Now,
	}
}

// ListPages implements Space.
func (s *MemorySpace) ListPages(_ context.Context) ([]PageMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PageMeta, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p.Meta)
	}
	slices.SortFunc(out, func(a, b PageMeta) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ReadPage implements Space.
func (s *MemorySpace) ReadPage(_ context.Context, name string) (*Page, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[name]
	if !ok {
		return nil, notFound(name)
	}
	return &p, nil
}

// WritePage implements Space.
func (s *MemorySpace) WritePage(_ context.Context, name, text string) (PageMeta, error) {
	name, err := cleanName(name)
	if err != nil {
		return PageMeta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	created := now
	if old, ok := s.pages[name]; ok {
		created = old.Meta.Created
	}
	meta := newMeta(name, text, created, now)
	s.pages[name] = Page{Meta: meta, Text: text}
	return meta, nil
}

// DeletePage implements Space.
func (s *MemorySpace) DeletePage(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[name]; !ok {
		return notFound(name)
	}
	delete(s.pages, name)
	return nil
}

// Close implements Space.
func (s *MemorySpace) Close() error {
	return nil
}
