// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/concord/internal/platform/constants"
)

// UnitCache is the read-through cache over exact-match lookups.
//
// The cache is strictly an accelerator: every method failure is survivable
// and the service falls back to the repository.
type UnitCache interface {
	Get(ctx context.Context, key Key) (*TranslationUnit, error)
	Set(ctx context.Context, key Key, unit *TranslationUnit) error
	Invalidate(ctx context.Context, key Key) error
}

// ErrCacheMiss signals that a key is absent from the cache.
var ErrCacheMiss = errors.New("tm: cache miss")

// RedisUnitCache caches exact-match lookups in Redis with a TTL backstop.
// Entries are invalidated eagerly whenever the underlying unit changes.
type RedisUnitCache struct {
	client *redis.Client
}

// NewRedisUnitCache creates a Redis-backed exact-match cache.
func NewRedisUnitCache(client *redis.Client) *RedisUnitCache {
	return &RedisUnitCache{client: client}
}

func cacheKey(key Key) string {
	return constants.RedisPrefixExactUnit + key.String()
}

func (c *RedisUnitCache) Get(ctx context.Context, key Key) (*TranslationUnit, error) {
	payload, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var unit TranslationUnit
	if err := json.Unmarshal(payload, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *RedisUnitCache) Set(ctx context.Context, key Key, unit *TranslationUnit) error {
	payload, err := json.Marshal(unit)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(key), payload, constants.ExactUnitCacheTTL).Err()
}

func (c *RedisUnitCache) Invalidate(ctx context.Context, key Key) error {
	return c.client.Del(ctx, cacheKey(key)).Err()
}
