// Package memo is the analysis cache: LRU-bounded memoization of derived
// artifacts keyed by operation parameters, with whole-state save/load so an
// analyzer can be restored without repeating expensive preprocessing.
package memo

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 128

// Entry is one memoized artifact with its creation metadata.
type Entry struct {
	Value     any
	CreatedAt time.Time
}

// Cache memoizes derived artifacts. All mutation goes through GetOrCompute:
// a repeated call with an identical key returns the stored artifact without
// recomputation, and concurrent callers of the same key share a single
// in-flight computation. Eviction is least-recently-used.
type Cache struct {
	entries *lru.Cache[string, Entry]
	group   singleflight.Group

	computes atomic.Int64
	hits     atomic.Int64
}

// New creates a Cache with the given capacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Key builds a canonical cache key from an operation name and its parameter
// tuple.
func Key(op string, params ...any) string {
	parts := make([]string, 1, len(params)+1)
	parts[0] = op
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, "/")
}

// GetOrCompute returns the artifact for key, computing it with fn at most
// once per distinct key. Callers arriving while a computation for the same
// key is in flight wait for and share its result; unrelated keys never block
// each other.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if entry, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return entry.Value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// stored the entry between the fast path and here.
		if entry, ok := c.entries.Get(key); ok {
			c.hits.Add(1)
			return entry.Value, nil
		}
		c.computes.Add(1)
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, Entry{Value: v, CreatedAt: time.Now().UTC()})
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Computes returns how many underlying computations have run. Used to verify
// memoization behavior.
func (c *Cache) Computes() int64 {
	return c.computes.Load()
}

// Hits returns how many lookups were served from the cache.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Purge drops every entry. Explicit teardown only; nothing resets the cache
// implicitly.
func (c *Cache) Purge() {
	c.entries.Purge()
}
