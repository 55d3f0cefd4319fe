package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBooking = "Booking"

// Event type constants
const (
	EventTypeBookingCreated       = "BookingCreated"
	EventTypeBookingStatusChanged = "BookingStatusChanged"
)

// BookingCreatedEvent carries what a calendar entry needs
type BookingCreatedEvent struct {
	shared.BaseDomainEvent
	BookingID     uuid.UUID `json:"booking_id"`
	ServiceName   string    `json:"service_name"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Notes         string    `json:"notes,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
}

// NewBookingCreatedEvent creates a new BookingCreatedEvent
func NewBookingCreatedEvent(b *Booking, svc *Service, slot *AvailabilitySlot) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingCreated, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		ServiceName:     svc.Name,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		Notes:           b.Notes,
		StartsAt:        slot.StartsAt,
		EndsAt:          slot.EndsAt,
	}
}

// BookingStatusChangedEvent is published on every lifecycle transition
type BookingStatusChangedEvent struct {
	shared.BaseDomainEvent
	BookingID uuid.UUID `json:"booking_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
}

// NewBookingStatusChangedEvent creates a new BookingStatusChangedEvent
func NewBookingStatusChangedEvent(b *Booking, from Status) *BookingStatusChangedEvent {
	return &BookingStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingStatusChanged, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		From:            from,
		To:              b.Status,
	}
}
