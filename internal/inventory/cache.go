package inventory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vinodismyname/itemsort/config"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache holds values for a fixed time after they are computed. Concurrent
// misses for one key share a single computation.
type TTLCache[V any] struct {
	mu           sync.RWMutex
	entries      map[string]*entry[V]
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	// computeTimeout bounds a shared GetOrCompute run.
	computeTimeout time.Duration
	group          singleflight.Group
	stopCh         chan struct{}
	stopOnce       sync.Once
	cleanupWG      sync.WaitGroup
}

// NewTTLCache constructs a cache. Pass ttl or cleanupEvery <= 0 to use the
// inventory defaults; clock defaults to time.Now when nil.
func NewTTLCache[V any](ttl, cleanupEvery time.Duration, clock func() time.Time) *TTLCache[V] {
	if ttl <= 0 {
		ttl = config.DefaultInventoryTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultInventoryCleanup
	}
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache[V]{
		entries:        make(map[string]*entry[V]),
		ttl:            ttl,
		cleanupEvery:   cleanupEvery,
		clock:          clock,
		computeTimeout: config.DefaultOperationTimeout,
		stopCh:         make(chan struct{}),
	}
}

// SetComputeTimeout bounds each shared computation. Values <= 0 are ignored.
func (c *TTLCache[V]) SetComputeTimeout(d time.Duration) {
	if d > 0 {
		c.computeTimeout = d
	}
}

// Start launches periodic eviction of expired entries.
func (c *TTLCache[V]) Start() {
	c.cleanupWG.Add(1)
	ticker := time.NewTicker(c.cleanupEvery)
	go func() {
		defer c.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops every entry.
func (c *TTLCache[V]) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	done := make(chan struct{})
	go func() { c.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Get returns a live entry. Expiry is fixed at store time; reads do not extend it.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	now := c.clock()
	c.mu.Lock()
	c.entries[key] = &entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for key or stores the result of fn.
// Concurrent callers share one run of fn, which is detached from any single
// caller and bounded by the compute timeout; a caller whose ctx ends stops
// waiting without cancelling it. Errors are returned to every waiter and never
// cached.
func (c *TTLCache[V]) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		fnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		v, err := fn(fnCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// EvictExpired drops entries past their expiry.
func (c *TTLCache[V]) EvictExpired() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
