package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU (case-insensitive)
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindBySKUs finds all products whose SKU is in the list
	FindBySKUs(ctx context.Context, skus []string) ([]Product, error)

	// FindAll finds products matching the filter.
	// Recognised filter keys: "active" (bool), "category" (string)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock persists stock and price changes only when the stored
	// version is product.Version-1, failing with ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, product *Product) error

	// ExistsBySKU checks whether a SKU is taken
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Categories lists the distinct categories of active products
	Categories(ctx context.Context) ([]string, error)
}
