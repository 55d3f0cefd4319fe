package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
)

// KeyPrefix namespaces every key this service writes to Redis
const KeyPrefix = "se:"

// ErrRedisDisabled is returned when redis.enabled is false
var ErrRedisDisabled = errors.New("redis is disabled")

const pingTimeout = 5 * time.Second

// NewRedisClient creates a client and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, ErrRedisDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}
