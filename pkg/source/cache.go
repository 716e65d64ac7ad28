package source

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bessleague/bessleague/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache holds parsed upstream results for a short time so repeated requests
// for the same date do not refetch. Concurrent misses for the same key share
// one fetch.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.Mutex
	store map[string]cacheEntry
}

// NewCache returns a Cache whose entries live for ttl. A non-positive ttl
// disables caching but keeps request collapsing.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]cacheEntry),
	}
}

// cacheKey builds the key for a stream and date range. Units are sorted so
// the order they were passed in does not matter.
func cacheKey(stream, from, to string, units []string) string {
	key := stream + "|" + from + "|" + to
	if len(units) > 0 {
		sorted := append([]string(nil), units...)
		sort.Strings(sorted)
		key += "|" + strings.Join(sorted, ",")
	}
	return key
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.store, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, v any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry{value: v, expiresAt: c.now().Add(c.ttl)}
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	var n int
	for k, e := range c.store {
		if !now.Before(e.expiresAt) {
			delete(c.store, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// cached returns the stored value for key or calls fetch. Errors are never
// cached. A waiting caller returns early if its own context ends.
func cached[T any](ctx context.Context, c *Cache, stream, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return fetch(ctx)
	}
	if v, ok := c.get(key); ok {
		metrics.ObserveCache(stream, true)
		return v.(T), nil
	}
	metrics.ObserveCache(stream, false)

	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			// the caller that started the shared fetch went away
			if res.Shared && errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
				return fetch(ctx)
			}
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
