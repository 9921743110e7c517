package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
)

// Backend is an opened cache with its lifecycle hooks
type Backend struct {
	ResultCache
	// Ping is nil for the in-process backend
	Ping  func(ctx context.Context) error
	Close func()
}

// Open creates the backend selected by cfg.Cache.Backend. Redis is the default.
func Open(cfg *config.Config, logger *zap.Logger) *Backend {
	if cfg.Cache.Backend == "memory" {
		mc := NewMemoryCache(cfg.Cache.Shards, cfg.Cache.TTL)
		return &Backend{ResultCache: mc, Close: mc.Close}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rc := NewRedisCache(client, cfg.Cache.TTL, logger)
	return &Backend{
		ResultCache: rc,
		Ping:        rc.Ping,
		Close:       func() { _ = client.Close() },
	}
}
