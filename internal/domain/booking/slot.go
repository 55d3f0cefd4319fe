package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// AvailabilitySlot is a bookable time window for a service
type AvailabilitySlot struct {
	shared.BaseEntity
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index:idx_slot_starts_service,priority:2"`
	StartsAt  time.Time `gorm:"not null;index:idx_slot_starts_service,priority:1"`
	EndsAt    time.Time `gorm:"not null"`
	IsActive  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}

// NewAvailabilitySlot creates an active slot
func NewAvailabilitySlot(serviceID uuid.UUID, startsAt, endsAt time.Time) (*AvailabilitySlot, error) {
	if serviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Service is required")
	}
	if !endsAt.After(startsAt) {
		return nil, shared.NewDomainError("INVALID_TIME_RANGE", "Slot must end after it starts")
	}
	return &AvailabilitySlot{
		BaseEntity: shared.NewBaseEntity(),
		ServiceID:  serviceID,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		IsActive:   true,
	}, nil
}

// NewSlotForService creates a slot starting at startsAt and lasting the
// service duration
func NewSlotForService(svc *Service, startsAt time.Time) (*AvailabilitySlot, error) {
	return NewAvailabilitySlot(svc.ID, startsAt, startsAt.Add(time.Duration(svc.DurationMinutes)*time.Minute))
}

// Bookable reports whether the slot can take a booking at time now
func (s *AvailabilitySlot) Bookable(now time.Time) error {
	if !s.IsActive {
		return shared.NewDomainError("SLOT_INACTIVE", "This time slot is no longer offered")
	}
	if !s.StartsAt.After(now) {
		return shared.NewDomainError("SLOT_IN_PAST", "This time slot has already started")
	}
	return nil
}

// Deactivate withdraws the slot
func (s *AvailabilitySlot) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now()
}

// Overlaps reports whether two slots share any instant
func (s *AvailabilitySlot) Overlaps(other *AvailabilitySlot) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}
