package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "portal:"

// CollectionCache stores JSON snapshots of API collections and records.
type CollectionCache interface {
	// Get loads the value under key into dst.
	// It reports false on a cache miss.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key with the configured TTL.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// RedisCollectionCache implements CollectionCache on Redis.
type RedisCollectionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCollectionCache creates a new Redis-backed collection cache.
func NewRedisCollectionCache(client *redis.Client, ttl time.Duration, log *zap.Logger) CollectionCache {
	return &RedisCollectionCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// UsersKey is the key of the full user list.
func UsersKey() string { return keyPrefix + "users" }

// UserKey is the key of one user record.
func UserKey(id string) string { return keyPrefix + "user:" + id }

// EventsKey is the key of the full event list.
func EventsKey() string { return keyPrefix + "events" }

// EventKey is the key of one event record.
func EventKey(id string) string { return keyPrefix + "event:" + id }

// RegistrationsKey is the key of a registration list, all users when userID is empty.
func RegistrationsKey(userID string) string {
	if userID == "" {
		return keyPrefix + "registrations:all"
	}
	return keyPrefix + "registrations:user:" + userID
}

// RegistrationsPattern matches every cached registration list.
func RegistrationsPattern() string { return keyPrefix + "registrations:*" }

// Get retrieves a JSON value from Redis.
func (c *RedisCollectionCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", key), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Error("failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return false, err
	}

	c.log.Debug("cache hit", zap.String("key", key))
	return true, nil
}

// Set stores a JSON value in Redis with TTL.
func (c *RedisCollectionCache) Set(ctx context.Context, key string, value any) error {
	if value == nil {
		return fmt.Errorf("cannot cache nil value for %s", key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Error("failed to marshal value for cache", zap.String("key", key), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.log.Debug("cached value", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes keys from Redis. A key ending in '*' is expanded with SCAN.
func (c *RedisCollectionCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	expanded := make([]string, 0, len(keys))
	for _, key := range keys {
		if len(key) == 0 || key[len(key)-1] != '*' {
			expanded = append(expanded, key)
			continue
		}
		iter := c.client.Scan(ctx, 0, key, 100).Iterator()
		for iter.Next(ctx) {
			expanded = append(expanded, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.log.Error("failed to scan cache keys", zap.String("pattern", key), zap.Error(err))
			return err
		}
	}
	if len(expanded) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, expanded...).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.Int("count", len(expanded)), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.Int("count", len(expanded)))
	return nil
}
