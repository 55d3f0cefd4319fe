// Package donation records money given through the donations page.
package donation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Donation is a settled donation payment
type Donation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Amount    int64      `gorm:"not null"`
	IntentID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	DonorID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Donation) TableName() string {
	return "donations"
}

// NewDonation creates a donation record for a paid intent
func NewDonation(intentID uuid.UUID, amount int64, donorID *uuid.UUID) (*Donation, error) {
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Donation amount must be positive")
	}
	return &Donation{
		ID:        uuid.New(),
		Amount:    amount,
		IntentID:  intentID,
		DonorID:   donorID,
		CreatedAt: time.Now(),
	}, nil
}

// Repository persists donations
type Repository interface {
	// Create inserts a donation; a second donation for the same intent yields shared.ErrAlreadyExists
	Create(ctx context.Context, d *Donation) error
	// FindAll lists donations newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Donation, error)
	Count(ctx context.Context) (int64, error)
	// Sum totals all donated amounts
	Sum(ctx context.Context) (int64, error)
}
