package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/murder-mystery/internal/config"
)

// Cache provides the Redis-backed round cache, round fan-out and live
// standings
type Cache struct {
	client   *redis.Client
	logger   *slog.Logger
	roundTTL time.Duration
}

// NewCache connects to Redis
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewCacheFromClient(client, cfg.RoundTTL, logger), nil
}

// NewCacheFromClient wraps an existing client
func NewCacheFromClient(client *redis.Client, roundTTL time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client:   client,
		logger:   logger,
		roundTTL: roundTTL,
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
