// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go provides a Valkey-backed cache for catalog data that every
// public page needs: the category navigation tree and the global brand
// list. Values are stored as JSON and dropped wholesale on any admin write.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"watchstore/internal/models"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog data.
	catalogKeyPrefix = "catalog:"

	navTreeKey = catalogKeyPrefix + "nav:tree"
	brandsKey  = catalogKeyPrefix + "brands"

	// DefaultCatalogTTL is how long cached catalog data lives.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache caches navigation data in Valkey.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// NavTree returns the cached navigation tree. The second value is false on
// a miss or any Valkey error.
func (c *CatalogCache) NavTree(ctx context.Context) ([]models.Category, bool) {
	var tree []models.Category
	if !c.getJSON(ctx, navTreeKey, &tree) {
		return nil, false
	}
	return tree, true
}

// SetNavTree stores the navigation tree with the configured TTL.
func (c *CatalogCache) SetNavTree(ctx context.Context, tree []models.Category) {
	c.setJSON(ctx, navTreeKey, tree)
}

// Brands returns the cached list of all active brands.
func (c *CatalogCache) Brands(ctx context.Context) ([]string, bool) {
	var brands []string
	if !c.getJSON(ctx, brandsKey, &brands) {
		return nil, false
	}
	return brands, true
}

// SetBrands stores the global brand list.
func (c *CatalogCache) SetBrands(ctx context.Context, brands []string) {
	c.setJSON(ctx, brandsKey, brands)
}

func (c *CatalogCache) getJSON(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("catalog cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("catalog cache hit", "key", key)
	return true
}

func (c *CatalogCache) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("catalog cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached catalog entry by scanning for the prefix.
// Called after any category or product write, since counts and brands
// shift with both.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "deleted", deleted)
	}
}
