package livescore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the last good score per event. Entries outlive their
// freshness window so a stale value can be served when the upstream fails.
type Cache interface {
	Get(ctx context.Context, eventID string) (Score, bool, error)
	Set(ctx context.Context, eventID string, s Score) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Score
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Score)}
}

func (c *MemoryCache) Get(_ context.Context, eventID string) (Score, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[eventID]
	return s, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, eventID string, s Score) error {
	c.mu.Lock()
	c.entries[eventID] = s
	c.mu.Unlock()
	return nil
}

// RedisCache shares scores between server instances.
type RedisCache struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

func NewRedisCache(client *redis.Client, retention time.Duration) *RedisCache {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisCache{client: client, prefix: "livescore:", retention: retention}
}

func (c *RedisCache) Get(ctx context.Context, eventID string) (Score, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+eventID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Score{}, false, nil
	}
	if err != nil {
		return Score{}, false, fmt.Errorf("redis get: %w", err)
	}
	var s Score
	if err := json.Unmarshal(raw, &s); err != nil {
		return Score{}, false, fmt.Errorf("decoding cached score: %w", err)
	}
	return s, true, nil
}

func (c *RedisCache) Set(ctx context.Context, eventID string, s Score) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding score: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+eventID, raw, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping reports whether redis is reachable, for health checks.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
