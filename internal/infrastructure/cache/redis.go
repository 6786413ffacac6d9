package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/journify/core/internal/infrastructure/config"
	"github.com/journify/core/internal/infrastructure/logger"
)

const maxConnectAttempts = 5

// Connect opens a Redis client, retrying with exponential backoff until the
// server answers PING.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	retryDelay := 2 * time.Second

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		log.Infow("Connecting to Redis", "addr", cfg.GetAddr(), "attempt", attempt)

		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 3,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Infow("Redis connected", "addr", cfg.GetAddr())
			return client, nil
		}
		client.Close()

		log.Warnw("Redis connection failed", "error", err, "attempt", attempt)
		if attempt < maxConnectAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxConnectAttempts)
}

// Ping checks Redis health.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
