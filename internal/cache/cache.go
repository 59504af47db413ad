// Package cache provides a bounded in-process key-value cache with TTL
// expiry, strict LRU eviction, and a best-effort memory budget.
//
// Eviction is evaluated at insertion time only; expired entries linger until
// the next access or the periodic sweep. Reads therefore stay O(1) with no
// synchronous cleanup cost.
package cache

import (
	"container/list"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// entryOverhead approximates per-entry bookkeeping cost (map slot, list
// element, timestamps) added to the payload size estimate.
const entryOverhead = 128

// Config bounds the cache. Zero values fall back to the defaults below.
type Config struct {
	DefaultTTL     time.Duration
	MaxEntries     int
	MaxMemoryBytes int64
	SweepInterval  time.Duration
}

const (
	defaultTTL      = 2 * time.Minute
	defaultEntries  = 2000
	defaultMemory   = 64 << 20
	defaultSweepGap = 5 * time.Minute
)

type entry struct {
	key        string
	value      []byte
	size       int64
	insertedAt time.Time
	expiresAt  time.Time
	accessedAt time.Time
	accesses   int64
	elem       *list.Element
}

// Cache is the in-process KeyValueStore implementation. A single mutex guards
// the map and the recency list; all critical sections are O(1) apart from
// prefix deletion and the sweep.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      *list.List // front = most recently used
	memBytes int64

	cfg    Config
	clock  func() time.Time
	logger *slog.Logger

	hits   uint64
	misses uint64

	stopSweep chan struct{}
	closeOnce sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for rejected sets and sweep reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New constructs a Cache and starts its background sweep.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultEntries
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = defaultMemory
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepGap
	}

	c := &Cache{
		entries:   make(map[string]*entry),
		lru:       list.New(),
		cfg:       cfg,
		clock:     time.Now,
		stopSweep: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.sweepLoop()
	return c
}

// Close stops the background sweep. The cache remains usable afterwards.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopSweep) })
}

// Set inserts or replaces the value under key, evicting LRU entries until the
// count limit and memory budget admit the new entry. An entry whose size alone
// exceeds the memory budget is rejected and logged, never stored.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	size := int64(len(key)+len(value)) + entryOverhead
	if size > c.cfg.MaxMemoryBytes {
		if c.logger != nil {
			c.logger.Warn("cache set rejected, entry exceeds memory budget",
				"key", key,
				"entry_bytes", size,
				"budget_bytes", c.cfg.MaxMemoryBytes,
			)
		}
		return nil
	}

	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}

	// Evict from the LRU tail until both bounds are satisfied.
	for len(c.entries) >= c.cfg.MaxEntries || c.memBytes+size > c.cfg.MaxMemoryBytes {
		tail := c.lru.Back()
		if tail == nil {
			break
		}
		c.removeLocked(tail.Value.(*entry))
	}

	e := &entry{
		key:        key,
		value:      value,
		size:       size,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.memBytes += size
	return nil
}

// Get returns the live value for key. Expired entries are removed on access.
// A hit updates recency.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if now.After(e.expiresAt) {
		c.removeLocked(e)
		c.misses++
		return nil, false, nil
	}

	e.accessedAt = now
	e.accesses++
	c.lru.MoveToFront(e.elem)
	c.hits++
	return e.value, true, nil
}

// Exists reports whether a live entry is present without touching recency.
func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if now.After(e.expiresAt) {
		c.removeLocked(e)
		return false, nil
	}
	return true, nil
}

// Delete removes the entry for key. Never fails.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
	}
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(e)
		}
	}
	return nil
}

// Clear removes all entries. Never fails.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.memBytes = 0
	return nil
}

// Stats is a point-in-time snapshot for observability. Not correctness
// critical.
type Stats struct {
	Size         int       `json:"size"`
	MemoryBytes  int64     `json:"memory_bytes"`
	Hits         uint64    `json:"hits"`
	Misses       uint64    `json:"misses"`
	HitRatio     float64   `json:"hit_ratio"`
	OldestAccess time.Time `json:"oldest_access"`
	NewestAccess time.Time `json:"newest_access"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        len(c.entries),
		MemoryBytes: c.memBytes,
		Hits:        c.hits,
		Misses:      c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRatio = float64(c.hits) / float64(total)
	}
	if back := c.lru.Back(); back != nil {
		s.OldestAccess = back.Value.(*entry).accessedAt
	}
	if front := c.lru.Front(); front != nil {
		s.NewestAccess = front.Value.(*entry).accessedAt
	}
	return s
}

// removeLocked unlinks an entry. Must be called while holding c.mu.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.lru.Remove(e.elem)
	c.memBytes -= e.size
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

// sweep removes expired entries so they stop holding memory between reads.
func (c *Cache) sweep() {
	now := c.clock()

	c.mu.Lock()
	removed := 0
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeLocked(e)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 && c.logger != nil {
		c.logger.Debug("cache sweep removed expired entries", "removed", removed)
	}
}

var _ KeyValueStore = (*Cache)(nil)
