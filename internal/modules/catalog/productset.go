package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProductSetCache stores "every active product in these categories" results.
type ProductSetCache interface {
	Get(ctx context.Context, key string) ([]*Product, bool, error)
	Set(ctx context.Context, key string, products []*Product) error
	// Invalidate drops every cached set.
	Invalidate(ctx context.Context) error
}

// ProductSetKey derives the cache key for a set of category ids. Order does not matter.
func ProductSetKey(categoryIDs []string) string {
	ids := slices.Clone(categoryIDs)
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

// MemoryProductSetCache keeps product sets in process memory.
type MemoryProductSetCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]productSetEntry
}

type productSetEntry struct {
	products []*Product
	storedAt time.Time
}

// NewMemoryProductSetCache creates an in-process cache. A zero ttl never expires entries.
func NewMemoryProductSetCache(ttl time.Duration) *MemoryProductSetCache {
	return &MemoryProductSetCache{ttl: ttl, now: time.Now, entries: make(map[string]productSetEntry)}
}

func (c *MemoryProductSetCache) Get(_ context.Context, key string) ([]*Product, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(e.products), true, nil
}

func (c *MemoryProductSetCache) Set(_ context.Context, key string, products []*Product) error {
	c.mu.Lock()
	c.entries[key] = productSetEntry{products: slices.Clone(products), storedAt: c.now()}
	c.mu.Unlock()
	return nil
}

func (c *MemoryProductSetCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]productSetEntry)
	c.mu.Unlock()
	return nil
}

// RedisProductSetCache shares product sets between API instances.
type RedisProductSetCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisProductSetCache stores entries under prefix with the given ttl.
func NewRedisProductSetCache(client *redis.Client, prefix string, ttl time.Duration) *RedisProductSetCache {
	return &RedisProductSetCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisProductSetCache) Get(ctx context.Context, key string) ([]*Product, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("product set cache get: %w", err)
	}
	var products []*Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("product set cache decode: %w", err)
	}
	return products, true, nil
}

func (c *RedisProductSetCache) Set(ctx context.Context, key string, products []*Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("product set cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("product set cache set: %w", err)
	}
	return nil
}

func (c *RedisProductSetCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("product set cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("product set cache delete: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
