package toolset

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentcore-dev/agentcore/pkg/result"
)

// Stats reports the cache's hit/miss counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// HitRate returns Hits / (Hits+Misses), or 0 with no lookups yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is the pluggable backend behind cacheable tools. Caching must
// never be applied to tools with observable side effects — that's
// enforced by Invoker checking tool.Cacheable(), not by Cache itself.
type Cache interface {
	Get(key string) (result.ToolResult, bool)
	Set(key string, value result.ToolResult, ttl time.Duration)
	Stats() Stats
}

// memoryEntry is one in-process cache slot.
type memoryEntry struct {
	value   result.ToolResult
	expires time.Time
}

// MemoryCache is the default in-process Cache implementation.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	hits    int64
	misses  int64
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(key string) (result.ToolResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return result.ToolResult{}, false
	}
	c.hits++
	return e.value, true
}

func (c *MemoryCache) Set(key string, value result.ToolResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
}

func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// RedisCache is a distributed alternative to MemoryCache for
// multi-process deployments that need to share tool-result caching
// across agent instances, built on github.com/redis/go-redis/v9 (the
// dependency goadesign-goa-ai reaches for this same kind of ephemeral
// keyed store).
type RedisCache struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewRedisCache wraps an existing *redis.Client. Keys are namespaced
// under prefix (e.g. "agentcore:toolcache:") to share a Redis instance
// safely with other consumers.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(key string) (result.ToolResult, bool) {
	raw, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.misses++
		return result.ToolResult{}, false
	}
	var v result.ToolResult
	if err := json.Unmarshal(raw, &v); err != nil {
		c.misses++
		return result.ToolResult{}, false
	}
	c.hits++
	return v, true
}

func (c *RedisCache) Set(key string, value result.ToolResult, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(context.Background(), c.prefix+key, raw, ttl).Err()
}

func (c *RedisCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries int64
	iter := c.client.Scan(context.Background(), 0, c.prefix+"*", 1000).Iterator()
	for iter.Next(context.Background()) {
		entries++
	}
	return Stats{Hits: c.hits, Misses: c.misses, Entries: int(entries)}
}
