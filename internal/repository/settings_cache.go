package repository

// This file adds a Redis read-through cache in front of SettingsRepo.
// Settings are read on every premium computation and telemetry
// classification but written rarely, so lookups are served from Redis and
// every write deletes the cached key before returning. A nil Redis client
// turns the cache into a plain pass-through so the service still works when
// Redis is unavailable at startup.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// missingMarker is cached for keys that do not exist so defaults are not
// re-queried on every call.
const missingMarker = "-"

// CachedSettingsRepo wraps SettingsRepo with a Redis cache.
type CachedSettingsRepo struct {
	inner  *SettingsRepo
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *log.Logger
}

// NewCachedSettingsRepo returns a cache over inner. ttl bounds staleness
// for writers that bypass this process.
func NewCachedSettingsRepo(inner *SettingsRepo, rdb *redis.Client, ttl time.Duration, prefix string) *CachedSettingsRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if prefix == "" {
		prefix = "settings"
	}
	return &CachedSettingsRepo{inner: inner, rdb: rdb, ttl: ttl, prefix: prefix, log: log.New("settings-cache")}
}

func (c *CachedSettingsRepo) key(k string) string { return c.prefix + ":" + k }

// Get returns the cached setting, falling back to MySQL on a miss.
func (c *CachedSettingsRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	if c.rdb == nil {
		return c.inner.Get(ctx, key)
	}
	raw, err := c.rdb.Get(ctx, c.key(key)).Result()
	switch {
	case err == nil && raw == missingMarker:
		return nil, ErrNotFound
	case err == nil:
		var s model.Setting
		if jerr := json.Unmarshal([]byte(raw), &s); jerr == nil {
			return &s, nil
		}
		c.log.Warnf("discarding undecodable cache entry for %s", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("redis get %s failed: %v", key, err)
	}

	s, err := c.inner.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		_ = c.rdb.Set(ctx, c.key(key), missingMarker, c.ttl).Err()
		return nil, err
	case err != nil:
		return nil, err
	}
	if b, merr := json.Marshal(s); merr == nil {
		_ = c.rdb.Set(ctx, c.key(key), b, c.ttl).Err()
	}
	return s, nil
}

// UpsertNumber writes through to MySQL and invalidates the cached entry so
// the next read observes the new value.
func (c *CachedSettingsRepo) UpsertNumber(ctx context.Context, key string, value float64, at time.Time) (*model.Setting, error) {
	s, err := c.inner.UpsertNumber(ctx, key, value, at)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, key)
	return s, nil
}

func (c *CachedSettingsRepo) invalidate(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		c.log.Errorf("redis del %s failed, value may be stale for %s: %v", key, c.ttl, err)
	}
}
