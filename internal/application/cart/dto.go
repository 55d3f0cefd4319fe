package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
)

// Ref identifies the caller's cart: the signed-in user, or the opaque cart id
// an anonymous browser carries.
type Ref struct {
	CartID *uuid.UUID
	UserID *uuid.UUID
}

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Qty       int       `json:"qty" binding:"max=999"`
}

// UpdateItemRequest sets the quantity of a line
type UpdateItemRequest struct {
	Qty int `json:"qty" binding:"max=999"`
}

// CartItemResponse is one cart line
type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Qty       int             `json:"qty"`
	Category  string          `json:"category"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartResponse is the cart with its totals
type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Items     []CartItemResponse `json:"items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Shipping  decimal.Decimal    `json:"shipping"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ToCartResponse converts a cart under a shipping policy
func ToCartResponse(c *cart.Cart, policy cart.ShippingPolicy) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = CartItemResponse{
			ID:        it.ID,
			Name:      it.Name,
			Price:     it.Price,
			ImageURL:  it.ImageURL,
			Qty:       it.Qty,
			Category:  it.Category,
			LineTotal: it.LineTotal(),
		}
	}
	totals := c.Totals(policy)
	return CartResponse{
		ID:        c.ID,
		Items:     items,
		Subtotal:  totals.Subtotal,
		Shipping:  totals.Shipping,
		Total:     totals.Total,
		ItemCount: c.ItemCount(),
		UpdatedAt: c.UpdatedAt,
	}
}
