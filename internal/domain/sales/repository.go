package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// OrderRepository persists orders together with their items
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByCustomer lists a user's orders, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	Save(ctx context.Context, order *Order) error
}
