// Package cart implements the shopping cart use cases on top of a cart store.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService handles cart operations
type CartService struct {
	store    cart.Store
	products catalog.ProductRepository
	policy   cart.ShippingPolicy
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(store cart.Store, products catalog.ProductRepository, policy cart.ShippingPolicy, logger *zap.Logger) *CartService {
	return &CartService{
		store:    store,
		products: products,
		policy:   policy,
		logger:   logger,
	}
}

// Policy returns the shipping policy used for totals
func (s *CartService) Policy() cart.ShippingPolicy {
	return s.policy
}

// Load returns the caller's cart, or a fresh unsaved one
func (s *CartService) Load(ctx context.Context, ref Ref) (*cart.Cart, error) {
	if ref.UserID != nil {
		c, err := s.store.GetByOwner(ctx, *ref.UserID)
		if errors.Is(err, shared.ErrNotFound) {
			return cart.NewForOwner(*ref.UserID), nil
		}
		return c, err
	}

	if ref.CartID != nil {
		c, err := s.store.Get(ctx, *ref.CartID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
		case err != nil:
			return nil, err
		case c.OwnerID != nil:
			// an anonymous caller never sees a user's cart
		default:
			return c, nil
		}
	}
	return cart.New(), nil
}

// Get returns the caller's cart with totals
func (s *CartService) Get(ctx context.Context, ref Ref) (*CartResponse, error) {
	c, err := s.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c, s.policy)
	return &resp, nil
}

// AddItem adds a catalog product to the cart
func (s *CartService) AddItem(ctx context.Context, ref Ref, req AddItemRequest) (*CartResponse, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, shared.NewDomainError("INVALID_STATE", "Product is not available")
	}

	return s.mutate(ctx, ref, func(c *cart.Cart) error {
		return c.AddItem(cart.LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			ImageURL: product.ImageURL,
			Category: product.Category,
		}, req.Qty)
	})
}

// UpdateItem sets a line's quantity
func (s *CartService) UpdateItem(ctx context.Context, ref Ref, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	return s.mutate(ctx, ref, func(c *cart.Cart) error {
		return c.UpdateQty(productID, req.Qty)
	})
}

// RemoveItem drops a line
func (s *CartService) RemoveItem(ctx context.Context, ref Ref, productID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, ref, func(c *cart.Cart) error {
		return c.RemoveItem(productID)
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, ref Ref) (*CartResponse, error) {
	return s.mutate(ctx, ref, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// Merge folds an anonymous cart into the user's cart after login and
// deletes the anonymous one. Missing or foreign carts are ignored.
func (s *CartService) Merge(ctx context.Context, anonymousID, userID uuid.UUID) (*CartResponse, error) {
	anon, err := s.store.Get(ctx, anonymousID)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && anon.OwnerID != nil) {
		return s.Get(ctx, Ref{UserID: &userID})
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.mutate(ctx, Ref{UserID: &userID}, func(c *cart.Cart) error {
		return c.Merge(anon)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, anonymousID); err != nil {
		s.logger.Warn("failed to delete merged anonymous cart",
			zap.String("cart_id", anonymousID.String()),
			zap.Error(err),
		)
	}
	s.logger.Info("anonymous cart merged",
		zap.String("cart_id", anonymousID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(anon.Items)),
	)
	return resp, nil
}

// maxSaveAttempts bounds how often a cart change is replayed after losing
// a concurrent save
const maxSaveAttempts = 5

// mutate loads the cart, applies change and saves it. A save that loses a
// race with another request reloads the cart and replays the change.
func (s *CartService) mutate(ctx context.Context, ref Ref, change func(*cart.Cart) error) (*CartResponse, error) {
	for attempt := 1; ; attempt++ {
		c, err := s.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		if err := change(c); err != nil {
			return nil, err
		}
		err = s.store.Save(ctx, c)
		if err == nil {
			resp := ToCartResponse(c, s.policy)
			return &resp, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= maxSaveAttempts {
			return nil, err
		}
		s.logger.Debug("cart changed concurrently, retrying",
			zap.String("cart_id", c.ID.String()),
			zap.Int("attempt", attempt),
		)
	}
}
