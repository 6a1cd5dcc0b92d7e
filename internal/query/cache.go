// Package query caches the results of read requests per logical resource and
// drops them when a mutation publishes a matching topic.
package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/meeting-room-portal/internal/events"
	"github.com/example/meeting-room-portal/internal/logging"
)

// Key files a cached result under a topic plus the encoded request
// parameters, e.g. the booking filters of a listing.
type Key struct {
	Topic  events.Topic
	Params string
}

// Cache holds server-confirmed results. Cached values are shared between
// readers and must not be mutated.
type Cache struct {
	mu          sync.Mutex
	maxEntries  int
	entries     map[Key]any
	generations map[Key]uint64
	inflight    map[Key]int
	unsubscribe func()
	logger      *slog.Logger
}

// NewCache constructs a cache invalidated by topics published on bus. A nil
// bus yields a cache that is only cleared through Invalidate and Reset.
func NewCache(bus *events.Bus, maxEntries int, logger *slog.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	c := &Cache{
		maxEntries:  maxEntries,
		entries:     make(map[Key]any),
		generations: make(map[Key]uint64),
		inflight:    make(map[Key]int),
		logger:      logging.Default(logger),
	}
	c.unsubscribe = bus.Subscribe(c.Invalidate)
	return c
}

// Close detaches the cache from its bus.
func (c *Cache) Close() {
	if c == nil || c.unsubscribe == nil {
		return
	}
	c.unsubscribe()
}

// Fetch returns the cached value under key or runs load. A load that was
// overtaken by an invalidation is handed to its caller but not stored. When
// ctx ends before load returns, the result is discarded and ctx.Err() is
// returned.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return load(ctx)
	}

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		if value, ok := cached.(T); ok {
			c.mu.Unlock()
			return value, nil
		}
		delete(c.entries, key)
	}
	started := c.generations[key]
	c.generations[key] = started
	c.inflight[key]++
	c.mu.Unlock()

	value, err := load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]--
	if c.inflight[key] == 0 {
		delete(c.inflight, key)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.forgetLocked(key)
		return zero, ctxErr
	}
	if err != nil {
		c.forgetLocked(key)
		return zero, err
	}
	if c.generations[key] != started {
		c.logger.Debug("discarding stale query result", "component", "query", "topic", key.Topic.String(), "params", key.Params)
		c.forgetLocked(key)
		return value, nil
	}
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = value
	return value, nil
}

// Invalidate drops every entry filed under a topic matched by topics and
// marks in-flight loads for those entries as stale.
func (c *Cache) Invalidate(topics []events.Topic) {
	if c == nil || len(topics) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.generations {
		for _, topic := range topics {
			if topic.Matches(key.Topic) {
				delete(c.entries, key)
				c.generations[key]++
				c.forgetLocked(key)
				break
			}
		}
	}
}

// Reset drops everything, as a full page load would.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]any)
	for key := range c.generations {
		c.generations[key]++
		c.forgetLocked(key)
	}
}

// Len reports the number of stored entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		c.forgetLocked(key)
		return
	}
}

// forgetLocked drops the generation of key once nothing refers to it: no
// stored entry and no load in flight that would compare against it.
func (c *Cache) forgetLocked(key Key) {
	if _, cached := c.entries[key]; cached {
		return
	}
	if c.inflight[key] > 0 {
		return
	}
	delete(c.generations, key)
}

// Mutate runs fn and, only when it succeeds, publishes topics so that
// subscribed views refetch. There is no optimistic patching.
func Mutate[T any](ctx context.Context, bus *events.Bus, fn func(context.Context) (T, error), topics ...events.Topic) (T, error) {
	value, err := fn(ctx)
	if err != nil {
		return value, err
	}
	bus.Publish(topics...)
	return value, nil
}
