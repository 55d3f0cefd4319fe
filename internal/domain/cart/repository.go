package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists carts. Implementations return shared.ErrNotFound for
// unknown carts.
type Store interface {
	// Get loads a cart by id
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)

	// GetByOwner loads the cart owned by a user
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Cart, error)

	// Save creates or replaces a cart and its lines. The write only succeeds
	// when the stored version still equals c.Version (a cart with version 0
	// must not exist yet); otherwise shared.ErrConcurrencyConflict is
	// returned. On success c.Version is incremented.
	Save(ctx context.Context, c *Cart) error

	// Delete removes a cart
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExpiringStore is implemented by stores whose entries expire
type ExpiringStore interface {
	Store
	TTL() time.Duration
}
