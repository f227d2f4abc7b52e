// Package cache keeps rendered storefront payloads in Redis so public
// page hits skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vitrina/internal/domain/catalog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const storefrontTTL = 5 * time.Minute

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// StorefrontCache is a read-through cache for public catalog pages.
// Redis being down degrades every lookup to a miss, never to an error.
type StorefrontCache struct {
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

func NewStorefrontCache(rdb *redis.Client, logger *zap.SugaredLogger) *StorefrontCache {
	return &StorefrontCache{rdb: rdb, logger: logger}
}

func storefrontKey(username, catalogSlug string) string {
	return fmt.Sprintf("storefront:%s:%s", username, catalogSlug)
}

func (c *StorefrontCache) Get(ctx context.Context, username, catalogSlug string) (*catalog.PublicCatalog, bool) {
	raw, err := c.rdb.Get(ctx, storefrontKey(username, catalogSlug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("storefront cache get failed", "error", err)
		}
		return nil, false
	}

	var page catalog.PublicCatalog
	if err := json.Unmarshal(raw, &page); err != nil {
		c.logger.Warnw("storefront cache payload corrupt, dropping", "error", err)
		c.rdb.Del(ctx, storefrontKey(username, catalogSlug))
		return nil, false
	}
	return &page, true
}

func (c *StorefrontCache) Set(ctx context.Context, username, catalogSlug string, page *catalog.PublicCatalog) {
	raw, err := json.Marshal(page)
	if err != nil {
		c.logger.Warnw("storefront cache marshal failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, storefrontKey(username, catalogSlug), raw, storefrontTTL).Err(); err != nil {
		c.logger.Warnw("storefront cache set failed", "error", err)
	}
}

// Invalidate drops every cached page for one merchant. Called on any
// write that can change a public page.
func (c *StorefrontCache) Invalidate(ctx context.Context, username string) {
	var cursor uint64
	pattern := storefrontKey(username, "*")
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warnw("storefront cache scan failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warnw("storefront cache del failed", "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
