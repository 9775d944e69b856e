// Package cache provides the get-or-compute result store for the page
// translation pipeline. It guarantees at-most-one in-flight computation per
// key: concurrent requests for the same key attach to the running
// computation instead of duplicating costly engine calls.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached pipeline result. Any settings change yields a
// different key, so a stale-settings entry is simply never looked up again.
type Key struct {
	PageID     string
	ImageHash  string
	SourceLang string
	TargetLang string
	Tier       string
}

// String renders the canonical cache key.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.PageID, k.ImageHash, k.SourceLang, k.TargetLang, k.Tier)
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Coalesced uint64 `json:"coalesced"`
	Corrupt   uint64 `json:"corrupt"`
}

// Store is a bounded LRU get-or-compute cache. Values must be immutable
// once published; the store never copies them.
type Store[V any] struct {
	entries  *lru.Cache[string, V]
	group    singleflight.Group
	validate func(V) error

	mu    sync.Mutex
	pages map[string]map[string]struct{} // pageID -> live keys

	hits      atomic.Uint64
	misses    atomic.Uint64
	coalesced atomic.Uint64
	corrupt   atomic.Uint64
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithValidator installs a sanity check applied on every read. A failing
// entry is dropped and treated as a miss, triggering recomputation.
func WithValidator[V any](validate func(V) error) Option[V] {
	return func(s *Store[V]) { s.validate = validate }
}

// New creates a Store bounded to maxEntries.
func New[V any](maxEntries int, opts ...Option[V]) (*Store[V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache: max entries must be positive, got %d", maxEntries)
	}

	s := &Store[V]{pages: make(map[string]map[string]struct{})}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := lru.NewWithEvict[string, V](maxEntries, func(key string, _ V) {
		s.unindex(key)
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	s.entries = entries
	return s, nil
}

// GetOrCompute returns the cached value for key, or runs compute exactly
// once per key across concurrent callers. Failed computations are never
// stored, so a later request retries from scratch.
func (s *Store[V]) GetOrCompute(ctx context.Context, key Key, compute func(ctx context.Context) (V, error)) (V, error) {
	ks := key.String()

	// Fast path: published entries are immutable, no flight needed.
	if v, ok := s.lookup(ks); ok {
		s.hits.Add(1)
		return v, nil
	}

	v, err, shared := s.group.Do(ks, func() (any, error) {
		// Re-check under the flight: another caller may have just
		// published this key.
		if v, ok := s.lookup(ks); ok {
			s.hits.Add(1)
			return v, nil
		}
		s.misses.Add(1)

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		s.entries.Add(ks, value)
		s.index(key.PageID, ks)
		return value, nil
	})
	if shared {
		s.coalesced.Add(1)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops every cached entry for the given page, across all
// language pairs and tiers. Called when the source image bytes change.
func (s *Store[V]) Invalidate(pageID string) int {
	s.mu.Lock()
	keys := make([]string, 0, len(s.pages[pageID]))
	for ks := range s.pages[pageID] {
		keys = append(keys, ks)
	}
	delete(s.pages, pageID)
	s.mu.Unlock()

	for _, ks := range keys {
		s.entries.Remove(ks)
	}
	if len(keys) > 0 {
		slog.Debug("Invalidated cached results", "page", pageID, "entries", len(keys))
	}
	return len(keys)
}

// Purge drops everything.
func (s *Store[V]) Purge() {
	s.entries.Purge()
	s.mu.Lock()
	s.pages = make(map[string]map[string]struct{})
	s.mu.Unlock()
}

// Len returns the number of cached entries.
func (s *Store[V]) Len() int { return s.entries.Len() }

// Stats returns a snapshot of the cache counters.
func (s *Store[V]) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Coalesced: s.coalesced.Load(),
		Corrupt:   s.corrupt.Load(),
	}
}

func (s *Store[V]) lookup(ks string) (V, bool) {
	v, ok := s.entries.Get(ks)
	if !ok {
		var zero V
		return zero, false
	}
	if s.validate != nil {
		if err := s.validate(v); err != nil {
			slog.Warn("Dropping corrupt cache entry", "key", ks, "error", err)
			s.entries.Remove(ks)
			s.corrupt.Add(1)
			var zero V
			return zero, false
		}
	}
	return v, true
}

func (s *Store[V]) index(pageID, ks string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[pageID] == nil {
		s.pages[pageID] = make(map[string]struct{})
	}
	s.pages[pageID][ks] = struct{}{}
}

func (s *Store[V]) unindex(ks string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pageID, keys := range s.pages {
		if _, ok := keys[ks]; ok {
			delete(keys, ks)
			if len(keys) == 0 {
				delete(s.pages, pageID)
			}
			return
		}
	}
}
