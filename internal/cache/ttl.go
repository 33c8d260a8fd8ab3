// Package cache holds category-scoped list results for a bounded time so
// repeated views of a category do not refetch it.
package cache

import (
	"slices"
	"sync"
	"time"
)

// DefaultTTL matches the portal's thirty minute list cache
const DefaultTTL = 30 * time.Minute

// Entry is one cached list and when it was fetched
type Entry[V any] struct {
	Items     []V       `json:"items"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Option configures a TTL cache
type Option func(*config)

type config struct {
	ttl    time.Duration
	clock  func() time.Time
	bypass []string
}

// WithTTL sets the initial time-to-live; values <= 0 are ignored
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBypass marks keys that must always be fetched live
func WithBypass(keys ...string) Option {
	return func(c *config) {
		c.bypass = append(c.bypass, keys...)
	}
}

// TTL is a keyed list cache with a single, adjustable time-to-live.
// Expired entries are never swept; they are simply not returned.
// Safe for concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	clock   func() time.Time
	bypass  map[string]struct{}
}

// New builds an empty cache
func New[V any](opts ...Option) *TTL[V] {
	cfg := &config{
		ttl:   DefaultTTL,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bypass := make(map[string]struct{}, len(cfg.bypass))
	for _, k := range cfg.bypass {
		bypass[k] = struct{}{}
	}

	return &TTL[V]{
		entries: make(map[string]Entry[V]),
		ttl:     cfg.ttl,
		clock:   cfg.clock,
		bypass:  bypass,
	}
}

// Get returns the cached items for key. Missing, expired, bypassed and
// empty entries all report ok=false.
func (c *TTL[V]) Get(key string) ([]V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, skip := c.bypass[key]; skip {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) || len(e.Items) == 0 {
		return nil, false
	}
	return slices.Clone(e.Items), true
}

// Put stores a copy of items under key stamped with the current time.
// Concurrent puts for one key are last-write-wins.
func (c *TTL[V]) Put(key string, items []V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{
		Items:     slices.Clone(items),
		FetchedAt: c.clock(),
	}
}

// Invalidate drops key
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every entry
func (c *TTL[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[V])
}

// SetTTL changes the time-to-live for every lookup from now on. Existing
// entries keep their fetch time. Non-positive values are ignored and false
// is returned.
func (c *TTL[V]) SetTTL(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
	return true
}

func (c *TTL[V]) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// Bypassed reports whether key is configured to skip the cache
func (c *TTL[V]) Bypassed(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bypass[key]
	return ok
}

// Len counts stored entries, fresh or not
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot copies the fresh entries for persistence
func (c *TTL[V]) Snapshot() map[string]Entry[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Entry[V], len(c.entries))
	for k, e := range c.entries {
		if !c.fresh(e) {
			continue
		}
		out[k] = Entry[V]{Items: slices.Clone(e.Items), FetchedAt: e.FetchedAt}
	}
	return out
}

// Restore loads persisted entries, keeping their original fetch times so a
// restored entry expires when it would have. Stale and bypassed entries are
// skipped. Returns how many entries were loaded.
func (c *TTL[V]) Restore(entries map[string]Entry[V]) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range entries {
		if _, skip := c.bypass[k]; skip || !c.fresh(e) {
			continue
		}
		c.entries[k] = Entry[V]{Items: slices.Clone(e.Items), FetchedAt: e.FetchedAt}
		n++
	}
	return n
}

// fresh must be called with the lock held
func (c *TTL[V]) fresh(e Entry[V]) bool {
	return c.clock().Sub(e.FetchedAt) < c.ttl
}
