package shared

import (
	"context"
	"time"
)

// EventHandler reacts to published domain events.
// EventTypes lists the types it wants; nil subscribes it to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services depend on
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers.
// Subscribe falls back to handler.EventTypes when no types are given.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// IdempotencyStore remembers which events a handler already processed, so a
// payment confirmed twice by the provider only marks the order paid once.
type IdempotencyStore interface {
	// MarkProcessed records eventID for ttl. It reports false when the id
	// was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	Enabled bool
	// TTL bounds how long a processed id is remembered
	TTL time.Duration
}

// DefaultIdempotencyConfig remembers processed events for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: 24 * time.Hour}
}
