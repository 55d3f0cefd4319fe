package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced    = "OrderPlaced"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderCancelled = "OrderCancelled"
)

// OrderPlacedEvent is published after checkout persists an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		ItemCount:       o.ItemCount(),
		TotalAmount:     o.TotalAmount,
	}
}

// OrderPaidEvent is published when payment for an order succeeds
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
	}
}
