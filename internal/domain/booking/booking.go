package booking

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Status is the lifecycle state of a booking
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusFulfilled Status = "fulfilled"
	StatusNoShow    Status = "no_show"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusFulfilled, StatusNoShow, StatusCancelled},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusFulfilled, StatusNoShow:
		return true
	}
	return false
}

// IsFinal reports whether no further transitions are possible
func (s Status) IsFinal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking reserves one availability slot for a customer
type Booking struct {
	shared.BaseAggregateRoot
	SlotID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	ServiceID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName  string     `gorm:"type:varchar(120);not null"`
	CustomerEmail string     `gorm:"type:varchar(254);not null"`
	CustomerPhone string     `gorm:"type:varchar(30)"`
	Notes         string     `gorm:"type:text"`
	Status        Status     `gorm:"type:varchar(12);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// Customer holds the contact data entered on the booking form
type Customer struct {
	UserID *uuid.UUID
	Name   string
	Email  string
	Phone  string
}

// NewBooking reserves slot for the customer. The slot must be bookable at now.
func NewBooking(slot *AvailabilitySlot, service *Service, customer Customer, notes string, now time.Time) (*Booking, error) {
	if slot == nil || service == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Slot and service are required")
	}
	if slot.ServiceID != service.ID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Slot does not belong to the service")
	}
	if !service.Active {
		return nil, shared.NewDomainError("SERVICE_INACTIVE", "This service is not available")
	}
	if err := slot.Bookable(now); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(customer.Name)
	email := strings.TrimSpace(customer.Email)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name is required")
	}
	if utf8.RuneCountInString(name) > 120 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 120 characters")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email is not valid")
	}
	phone := strings.TrimSpace(customer.Phone)
	if utf8.RuneCountInString(phone) > 30 {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}

	b := &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SlotID:            slot.ID,
		ServiceID:         service.ID,
		CustomerID:        customer.UserID,
		CustomerName:      name,
		CustomerEmail:     strings.ToLower(email),
		CustomerPhone:     phone,
		Notes:             strings.TrimSpace(notes),
		Status:            StatusPending,
	}
	b.AddDomainEvent(NewBookingCreatedEvent(b, service, slot))
	return b, nil
}

// TransitionTo moves the booking to next if the lifecycle allows it
func (b *Booking) TransitionTo(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown booking status: "+string(next))
	}
	if b.Status == next {
		return nil
	}
	if !b.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot change booking from "+string(b.Status)+" to "+string(next))
	}
	old := b.Status
	b.Status = next
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	b.AddDomainEvent(NewBookingStatusChangedEvent(b, old))
	return nil
}

// MarkPaid records payment of the booking
func (b *Booking) MarkPaid() error { return b.TransitionTo(StatusPaid) }

// Cancel cancels the booking
func (b *Booking) Cancel() error { return b.TransitionTo(StatusCancelled) }

// IsOwnedBy reports whether the booking belongs to the user
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.CustomerID != nil && *b.CustomerID == userID
}
