package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/dedup/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/periodic"
)

// Cache remembers notified messages for a fixed window so replays and edits
// do not notify twice.
type Cache struct {
	window  time.Duration
	sweep   time.Duration
	now     func() time.Time
	logger  *slog.Logger
	entries map[domain.Key]domain.Entry
	mu      sync.Mutex
	runner  *periodic.Runner
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a new dedup cache
func New(window, sweep time.Duration, opts ...Option) *Cache {
	c := &Cache{
		window:  window,
		sweep:   sweep,
		now:     time.Now,
		logger:  slog.Default(),
		entries: make(map[domain.Key]domain.Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the suppression window.
func (c *Cache) Window() time.Duration { return c.window }

// Seen returns the entry for key if it was recorded within the window.
func (c *Cache) Seen(key domain.Key) (domain.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

// Record stores entry under key, stamping FirstSeenAt when unset.
func (c *Cache) Record(key domain.Key, entry domain.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, entry)
}

// CheckAndRecord atomically checks key and records entry if it was not seen
// within the window. When duplicate is true prev holds the original entry
// and nothing is written.
func (c *Cache) CheckAndRecord(key domain.Key, entry domain.Entry) (prev domain.Entry, duplicate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.lookup(key); ok {
		return prev, true
	}
	c.store(key, entry)
	return domain.Entry{}, false
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.FirstSeenAt) > c.window {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Since returns how long ago entry was first recorded.
func (c *Cache) Since(entry domain.Entry) time.Duration {
	return c.now().Sub(entry.FirstSeenAt)
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Recent returns up to limit live entries, newest first.
func (c *Cache) Recent(limit int) []domain.Entry {
	c.mu.Lock()
	now := c.now()
	entries := make([]domain.Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		if now.Sub(entry.FirstSeenAt) <= c.window {
			entries = append(entries, entry)
		}
	}
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FirstSeenAt.After(entries[j].FirstSeenAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Start sweeps on a timer until Stop is called.
func (c *Cache) Start(ctx context.Context) {
	c.runner = periodic.New("dedup-sweep", c.sweep, func(context.Context) {
		if removed := c.Sweep(); removed > 0 {
			c.logger.Debug("Swept expired dedup entries", "removed", removed, "remaining", c.Len())
		}
	}, c.logger)
	c.runner.Start(ctx, false)
}

// Stop halts the sweep timer.
func (c *Cache) Stop() {
	if c.runner != nil {
		c.runner.Stop()
	}
}

func (c *Cache) lookup(key domain.Key) (domain.Entry, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return domain.Entry{}, false
	}
	if c.now().Sub(entry.FirstSeenAt) > c.window {
		return domain.Entry{}, false
	}
	return entry, true
}

func (c *Cache) store(key domain.Key, entry domain.Entry) {
	entry.Key = key
	if entry.FirstSeenAt.IsZero() {
		entry.FirstSeenAt = c.now()
	}
	c.entries[key] = entry
}
