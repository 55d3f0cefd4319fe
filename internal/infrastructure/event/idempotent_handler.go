package event

import (
	"context"

	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler wraps an EventHandler so each event ID is handled once,
// even when a payment return is replayed and the same event is republished.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its ID was already marked
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	eventID := event.EventID().String()
	isNew, err := h.store.MarkProcessed(ctx, eventID, h.config.TTL)
	switch {
	case err != nil:
		// Processing twice is safer than dropping a payment confirmation
		h.logger.Warn("failed to check idempotency, processing anyway",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.logger.Debug("duplicate event detected, skipping",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	return h.handler.Handle(ctx, event)
}

// WrapHandlersWithIdempotency wraps several handlers with the same store
func WrapHandlersWithIdempotency(handlers []shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) []shared.EventHandler {
	wrapped := make([]shared.EventHandler, len(handlers))
	for i, h := range handlers {
		wrapped[i] = NewIdempotentHandler(h, store, logger, opts...)
	}
	return wrapped
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
