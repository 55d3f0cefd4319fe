// Package cart holds the shopping cart aggregate.
//
// A cart is an ordered list of line items keyed by product id. Ids are unique
// within a cart and every quantity is a positive integer; all mutating
// operations preserve both invariants.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Default shipping rules in CLP
var (
	DefaultShippingFee           = decimal.NewFromInt(3990)
	DefaultFreeShippingThreshold = decimal.NewFromInt(50000)
)

// ShippingPolicy decides the shipping fee for a subtotal.
// Shipping is free for an empty cart and for subtotals strictly above FreeAbove.
type ShippingPolicy struct {
	Fee       decimal.Decimal
	FreeAbove decimal.Decimal
}

// DefaultShippingPolicy returns the shop's standard shipping rule
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{Fee: DefaultShippingFee, FreeAbove: DefaultFreeShippingThreshold}
}

// FeeFor returns the shipping fee for the given subtotal
func (p ShippingPolicy) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() || subtotal.GreaterThan(p.FreeAbove) {
		return decimal.Zero
	}
	return p.Fee
}

// LineItem is one product in the cart with a snapshot of its display data
type LineItem struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Qty      int             `json:"qty"`
	Category string          `json:"category"`
}

// LineTotal returns price * qty
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is the shopping cart aggregate
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Items     []LineItem `json:"items"`
	// Version counts successful saves; 0 means never stored
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New creates an empty anonymous cart
func New() *Cart {
	now := time.Now()
	return &Cart{
		ID:        uuid.New(),
		Items:     make([]LineItem, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewForOwner creates an empty cart owned by a user
func NewForOwner(ownerID uuid.UUID) *Cart {
	c := New()
	c.OwnerID = &ownerID
	return c
}

// MaxQty is the largest quantity a single line can hold
const MaxQty = 999

// normalizeQty clamps a requested quantity into [1, MaxQty]
func normalizeQty(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > MaxQty:
		return MaxQty
	}
	return qty
}

func (c *Cart) indexOf(id uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem adds qty units of item. An existing line with the same id has its
// quantity increased and keeps its position; otherwise the line is appended.
func (c *Cart) AddItem(item LineItem, qty int) error {
	if item.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Item id is required")
	}
	if item.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	qty = normalizeQty(qty)

	if i := c.indexOf(item.ID); i >= 0 {
		// both operands are within [1, MaxQty] so the sum cannot overflow
		c.Items[i].Qty = normalizeQty(normalizeQty(c.Items[i].Qty) + qty)
		// refresh the snapshot so the cart shows current catalog data
		c.Items[i].Name = item.Name
		c.Items[i].Price = item.Price
		c.Items[i].ImageURL = item.ImageURL
		c.Items[i].Category = item.Category
	} else {
		item.Qty = qty
		c.Items = append(c.Items, item)
	}
	c.touch()
	return nil
}

// UpdateQty sets the quantity of an existing line, never below 1
func (c *Cart) UpdateQty(id uuid.UUID, qty int) error {
	i := c.indexOf(id)
	if i < 0 {
		return shared.NewDomainError("NOT_FOUND", "Item is not in the cart")
	}
	c.Items[i].Qty = normalizeQty(qty)
	c.touch()
	return nil
}

// RemoveItem drops a line from the cart
func (c *Cart) RemoveItem(id uuid.UUID) error {
	i := c.indexOf(id)
	if i < 0 {
		return shared.NewDomainError("NOT_FOUND", "Item is not in the cart")
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = make([]LineItem, 0)
	c.touch()
}

// Merge folds other's lines into this cart using AddItem semantics
func (c *Cart) Merge(other *Cart) error {
	if other == nil {
		return nil
	}
	for _, item := range other.Items {
		if err := c.AddItem(item, item.Qty); err != nil {
			return err
		}
	}
	return nil
}

// Item returns the line with the given id
func (c *Cart) Item(id uuid.UUID) (LineItem, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

// Subtotal returns the sum of price * qty over all lines
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Totals computes subtotal, shipping and total under a policy
func (c *Cart) Totals(policy ShippingPolicy) Totals {
	subtotal := c.Subtotal()
	shipping := policy.FeeFor(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

// Validate checks the aggregate invariants. Cart stores call it on every
// load so rows written by older code never reach the service layer.
func (c *Cart) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	for _, it := range c.Items {
		if _, dup := seen[it.ID]; dup {
			return shared.NewDomainError("INVALID_STATE", "Duplicate item in cart")
		}
		seen[it.ID] = struct{}{}
		if it.Qty < 1 || it.Qty > MaxQty {
			return shared.NewDomainError("INVALID_STATE", "Item quantity out of range")
		}
	}
	return nil
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// Totals is the money summary of a cart
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}
