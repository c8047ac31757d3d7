// Package querycache holds the results of idempotent reads: one shared fetch
// per key, explicit invalidation and a fixed retry budget.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Config controls cache policy.
type Config struct {
	// StaleTime is how long a value stays fresh; 0 keeps it fresh until
	// invalidated.
	StaleTime time.Duration
	// Retry is the number of retries after a failed fetch.
	Retry int
	// RetryDelay is the first retry delay; it doubles per attempt.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// RefetchOnFocus makes Focus mark every entry stale.
	RefetchOnFocus bool
	MaxEntries     int
	Logger         *slog.Logger
	Metrics        *metrics.ClientMetrics
}

// DefaultConfig mirrors the read policy of the web client: two retries and
// no refetch when the user comes back to the app.
func DefaultConfig() Config {
	return Config{
		Retry:         2,
		RetryDelay:    time.Second,
		MaxRetryDelay: 30 * time.Second,
		MaxEntries:    256,
	}
}

// Stats are simple counters for cache behavior.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Joins         int64 `json:"joins"`
	Fetches       int64 `json:"fetches"`
	Retries       int64 `json:"retries"`
	Invalidations int64 `json:"invalidations"`
	Evictions     int64 `json:"evictions"`
	Size          int   `json:"size"`
}

type entry struct {
	key       Key
	gen       uint64
	value     any
	loaded    bool
	stale     bool
	updatedAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.ClientMetrics
	now     func() time.Time

	mu      sync.Mutex
	entries *simplelru.LRU[string, *entry]
	gen     uint64
	group   singleflight.Group

	hits          int64
	misses        int64
	joins         int64
	fetches       int64
	retries       int64
	invalidations int64
	evictions     int64
}

func New(cfg Config) (*Cache, error) {
	if cfg.Retry < 0 {
		cfg.Retry = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 30 * time.Second
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	entries, err := simplelru.NewLRU[string, *entry](cfg.MaxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("querycache: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cfg:     cfg,
		logger:  logger,
		metrics: cfg.Metrics,
		now:     time.Now,
		entries: entries,
	}, nil
}

// Read returns the fresh cached value for key or runs fetch. Concurrent reads
// of the same key share one fetch. The shared fetch is not canceled when a
// caller's ctx ends; that caller just stops waiting.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	id := key.id()

	c.mu.Lock()
	e, ok := c.entries.Get(id)
	if ok && c.freshLocked(e) {
		c.mu.Unlock()
		atomic.AddInt64(&c.hits, 1)
		c.metrics.ObserveCache(metrics.CacheHit)
		return e.value, nil
	}
	if !ok {
		e = &entry{key: key, gen: c.nextGenLocked()}
		if c.entries.Add(id, e) {
			atomic.AddInt64(&c.evictions, 1)
			c.metrics.ObserveCache(metrics.CacheEvict)
		}
	}
	gen := e.gen
	c.mu.Unlock()

	ch := c.group.DoChan(fmt.Sprintf("%s@%d", id, gen), func() (any, error) {
		atomic.AddInt64(&c.fetches, 1)
		value, err := c.fetchWithRetry(context.WithoutCancel(ctx), key, fetch)
		if err == nil {
			c.store(id, e, gen, value)
		}
		return value, err
	})

	select {
	case res := <-ch:
		if res.Shared {
			atomic.AddInt64(&c.joins, 1)
			c.metrics.ObserveCache(metrics.CacheJoin)
		} else {
			atomic.AddInt64(&c.misses, 1)
			c.metrics.ObserveCache(metrics.CacheMiss)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// store keeps value only if the entry is still cached and was not
// invalidated while the fetch ran.
func (c *Cache) store(id string, e *entry, gen uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries.Peek(id)
	if !ok || current != e || e.gen != gen {
		c.logger.Debug("discarding fetch result superseded by invalidation", "key", e.key.String())
		return
	}
	e.value = value
	e.loaded = true
	e.stale = false
	e.updatedAt = c.now()
}

func (c *Cache) fetchWithRetry(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	for attempt := 0; ; attempt++ {
		value, err := fetch(ctx)
		if err == nil {
			return value, nil
		}
		if attempt >= c.cfg.Retry || !retryable(err) {
			return nil, err
		}
		atomic.AddInt64(&c.retries, 1)
		c.metrics.ObserveCache(metrics.CacheRetry)
		c.logger.Warn("query retry",
			"key", key.String(),
			"attempt", attempt+1,
			"error", err,
		)
		if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

func (c *Cache) sleep(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryDelay * time.Duration(1<<attempt)
	if delay > c.cfg.MaxRetryDelay {
		delay = c.cfg.MaxRetryDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Invalidate marks every entry whose key starts with prefix as stale and
// returns how many entries matched.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := 0
	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		e.gen = c.nextGenLocked()
		matched++
	}
	atomic.AddInt64(&c.invalidations, 1)
	c.metrics.ObserveCache(metrics.CacheInvalidate)
	c.logger.Debug("query cache invalidated", "prefix", prefix.String(), "matched", matched)
	return matched
}

// Clear drops every entry. Fetches in flight do not repopulate the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries.Values() {
		e.gen = c.nextGenLocked()
	}
	c.entries.Purge()
	c.metrics.ObserveCache(metrics.CacheClear)
}

// Focus signals that the user came back to the application. With
// RefetchOnFocus every entry is marked stale; otherwise it is a no-op.
func (c *Cache) Focus() int {
	if !c.cfg.RefetchOnFocus {
		return 0
	}
	return c.Invalidate(nil)
}

// Peek returns the last loaded value for key and whether it is stale,
// without fetching.
func (c *Cache) Peek(key Key) (value any, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries.Peek(key.id())
	if !found || !e.loaded {
		return nil, false, false
	}
	return e.value, !c.freshLocked(e), true
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := c.entries.Len()
	c.mu.Unlock()
	return Stats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Joins:         atomic.LoadInt64(&c.joins),
		Fetches:       atomic.LoadInt64(&c.fetches),
		Retries:       atomic.LoadInt64(&c.retries),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		Evictions:     atomic.LoadInt64(&c.evictions),
		Size:          size,
	}
}

func (c *Cache) freshLocked(e *entry) bool {
	if !e.loaded || e.stale {
		return false
	}
	if c.cfg.StaleTime > 0 && c.now().Sub(e.updatedAt) >= c.cfg.StaleTime {
		return false
	}
	return true
}

func (c *Cache) nextGenLocked() uint64 {
	c.gen++
	return c.gen
}
