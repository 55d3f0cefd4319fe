package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// ServiceRepository persists services
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	FindBySlug(ctx context.Context, slug string) (*Service, error)
	// FindAll lists services; filter key "active" (bool) restricts visibility
	FindAll(ctx context.Context, filter shared.Filter) ([]Service, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, service *Service) error
}

// SlotRepository persists availability slots
type SlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error)
	// FindOpen returns active, unbooked slots of a service starting in [from, to)
	FindOpen(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]AvailabilitySlot, error)
	// FindOverlapping returns active slots of a service intersecting [from, to)
	FindOverlapping(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]AvailabilitySlot, error)
	Save(ctx context.Context, slot *AvailabilitySlot) error
}

// BookingRepository persists bookings
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Booking, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	// Create inserts a new booking. A second booking for the same slot
	// fails with shared.ErrAlreadyExists.
	Create(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
}
