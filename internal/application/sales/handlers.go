package sales

import (
	"context"

	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentSucceededHandler marks orders paid when their intent settles
type PaymentSucceededHandler struct {
	orders *OrderService
	logger *zap.Logger
}

// NewPaymentSucceededHandler creates a new PaymentSucceededHandler
func NewPaymentSucceededHandler(orders *OrderService, logger *zap.Logger) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{orders: orders, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentSucceededHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentSucceeded}
}

// Handle processes a PaymentSucceeded event
func (h *PaymentSucceededHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payment.PaymentSucceededEvent)
	if !ok || e.RefType != payment.RefTypeOrder || e.RefID == nil {
		return nil
	}
	if err := h.orders.MarkPaid(ctx, *e.RefID); err != nil {
		h.logger.Error("failed to mark order paid",
			zap.String("order_id", e.RefID.String()),
			zap.String("intent_id", e.IntentID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// PaymentFailedHandler notes failed order payments. The order stays
// pending so the customer can retry.
type PaymentFailedHandler struct {
	logger *zap.Logger
}

// NewPaymentFailedHandler creates a new PaymentFailedHandler
func NewPaymentFailedHandler(logger *zap.Logger) *PaymentFailedHandler {
	return &PaymentFailedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentFailedHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentFailed}
}

// Handle processes a PaymentFailed event
func (h *PaymentFailedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payment.PaymentFailedEvent)
	if !ok || e.RefType != payment.RefTypeOrder || e.RefID == nil {
		return nil
	}
	h.logger.Info("order payment failed",
		zap.String("order_id", e.RefID.String()),
		zap.String("intent_id", e.IntentID.String()),
		zap.String("reason", e.Reason),
	)
	return nil
}
