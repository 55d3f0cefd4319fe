package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory builds the Redis backed stores from configuration and decides when
// an in-memory replacement is acceptable.
type Factory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	once      sync.Once
	client    *redis.Client
	clientErr error
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether in-memory stores may replace Redis
// when it is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client connects once and returns the shared client.
// ErrRedisDisabled is returned when Redis is switched off.
func (f *Factory) Client(ctx context.Context) (*redis.Client, error) {
	f.once.Do(func() {
		f.client, f.clientErr = NewRedisClient(ctx, f.cfg)
		if f.clientErr == nil {
			f.logger.Info("connected to Redis", zap.String("addr", f.cfg.Addr()))
		}
	})
	return f.client, f.clientErr
}

// IdempotencyStore returns a Redis store, or an in-memory one when fallback is allowed
func (f *Factory) IdempotencyStore(ctx context.Context) (shared.IdempotencyStore, error) {
	client, err := f.Client(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Duplicate event processing is possible across replicas.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

// CartStore returns the Redis cart store. There is no fallback: a cart kept
// in process memory would vanish on restart.
func (f *Factory) CartStore(ctx context.Context, cfg config.CartConfig) (cart.ExpiringStore, error) {
	client, err := f.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis cart store unavailable: %w", err)
	}
	return NewRedisCartStore(client, cfg.TTL), nil
}

// Close releases the shared client if one was opened
func (f *Factory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
