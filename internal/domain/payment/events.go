package payment

import (
	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeIntent = "PaymentIntent"

// Event type constants
const (
	EventTypePaymentSucceeded = "PaymentSucceeded"
	EventTypePaymentFailed    = "PaymentFailed"
)

// PaymentSucceededEvent is published when an intent becomes PAID
type PaymentSucceededEvent struct {
	shared.BaseDomainEvent
	IntentID   uuid.UUID  `json:"intent_id"`
	Amount     int64      `json:"amount"`
	RefType    RefType    `json:"ref_type"`
	RefID      *uuid.UUID `json:"ref_id,omitempty"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
}

// NewPaymentSucceededEvent creates a new PaymentSucceededEvent
func NewPaymentSucceededEvent(i *Intent) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSucceeded, AggregateTypeIntent, i.ID),
		IntentID:        i.ID,
		Amount:          i.Amount,
		RefType:         i.RefType,
		RefID:           i.RefID,
		CustomerID:      i.CustomerID,
	}
}

// PaymentFailedEvent is published when an intent becomes FAILED
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	IntentID uuid.UUID  `json:"intent_id"`
	RefType  RefType    `json:"ref_type"`
	RefID    *uuid.UUID `json:"ref_id,omitempty"`
	Reason   string     `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(i *Intent) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypeIntent, i.ID),
		IntentID:        i.ID,
		RefType:         i.RefType,
		RefID:           i.RefID,
		Reason:          i.FailureReason,
	}
}
