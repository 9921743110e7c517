package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

const keyPrefix = "vacancies:"

// RedisCache stores results as JSON strings with a fixed expiry
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the list stored under key
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.Vacancy, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Cache read failed, treating as miss",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)),
		)
		return nil, false
	}

	var list []domain.Vacancy
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Warn("Cached value is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return list, true
}

// Set overwrites the list stored under key
func (c *RedisCache) Set(ctx context.Context, key string, list []domain.Vacancy) {
	if list == nil {
		list = []domain.Vacancy{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		c.logger.Error("Failed to encode results", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed, skipping",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)),
		)
	}
}

// Ping reports whether redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
