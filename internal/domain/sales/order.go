package sales

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a shop purchase created at checkout
type Order struct {
	shared.BaseAggregateRoot
	CustomerID     *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName   string          `gorm:"type:varchar(120)"`
	CustomerEmail  string          `gorm:"type:varchar(254)"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	SubtotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidAt         *time.Time
	Items          []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product line with the price captured at checkout
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"column:sku;type:varchar(50);not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Qty       int             `gorm:"not null"`
	PriceAt   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Customer is the buyer's identity for an order
type Customer struct {
	UserID *uuid.UUID
	Name   string
	Email  string
}

// NewOrder creates an empty pending order
func NewOrder(customer Customer) (*Order, error) {
	email := strings.ToLower(strings.TrimSpace(customer.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email is not valid")
		}
	}
	if customer.UserID == nil && email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Guest checkout requires an email")
	}
	name := strings.TrimSpace(customer.Name)
	if utf8.RuneCountInString(name) > 120 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 120 characters")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customer.UserID,
		CustomerName:      name,
		CustomerEmail:     email,
		Status:            OrderStatusPending,
		SubtotalAmount:    decimal.Zero,
		ShippingAmount:    decimal.Zero,
		TotalAmount:       decimal.Zero,
		Items:             make([]OrderItem, 0),
	}, nil
}

// AddItem appends a line with a price snapshot. Lines for the same product
// are merged.
func (o *Order) AddItem(productID uuid.UUID, sku, name string, qty int, price decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending orders can be modified")
	}
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items[i].Qty += qty
			o.Items[i].LineTotal = o.Items[i].PriceAt.Mul(decimal.NewFromInt(int64(o.Items[i].Qty)))
			o.recalculate()
			return nil
		}
	}

	o.Items = append(o.Items, OrderItem{
		ID:        uuid.New(),
		OrderID:   o.ID,
		ProductID: productID,
		SKU:       sku,
		Name:      name,
		Qty:       qty,
		PriceAt:   price,
		LineTotal: price.Mul(decimal.NewFromInt(int64(qty))),
	})
	o.recalculate()
	return nil
}

// SetShipping sets the shipping charge and recomputes the total
func (o *Order) SetShipping(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping cannot be negative")
	}
	o.ShippingAmount = amount
	o.recalculate()
	return nil
}

// Place finalises the order contents and announces it
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Order has no items")
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// MarkPaid records a successful payment. Repeated calls are no-ops.
func (o *Order) MarkPaid(at time.Time) error {
	switch o.Status {
	case OrderStatusPaid:
		return nil
	case OrderStatusPending:
	default:
		return shared.NewDomainError("INVALID_STATE", "Cannot pay a "+string(o.Status)+" order")
	}
	o.Status = OrderStatusPaid
	o.PaidAt = &at
	o.touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// Cancel cancels a pending order
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCancelled {
		return nil
	}
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending orders can be cancelled")
	}
	o.Status = OrderStatusCancelled
	o.touch()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// IsOwnedBy reports whether the order belongs to the user
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.CustomerID != nil && *o.CustomerID == userID
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Qty
	}
	return n
}

// recalculate derives subtotal and total from the lines
func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	o.SubtotalAmount = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingAmount)
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
}
