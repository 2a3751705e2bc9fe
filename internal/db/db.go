package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"group-chat-service/internal/config"
)

// Connect opens the Redis client backing the group registry and message logs
// and waits until it answers a PING.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})

	var err error
	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			logger.Infow("Connected to Redis", "addr", cfg.Addr)
			return client, nil
		}
		logger.Warnw("Redis ping failed", "addr", cfg.Addr, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("connect redis: %w", err)
}
