package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apppayment "github.com/stephanos-estetic/backend/internal/application/payment"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
)

// CheckoutItem is an explicit line in a checkout request
type CheckoutItem struct {
	SKU string `json:"sku" binding:"required,max=50"`
	Qty int    `json:"qty" binding:"required,min=1,max=999"`
}

// CheckoutRequest places an order. Without Items the caller's cart is used.
type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items" binding:"omitempty,max=100,dive"`
	CustomerName  string         `json:"customer_name" binding:"max=120"`
	CustomerEmail string         `json:"customer_email" binding:"omitempty,email,max=254"`
}

// OrderItemResponse is an order line in API responses
type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	PriceAt   decimal.Decimal `json:"price_at"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse is an order in API responses
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Status        string              `json:"status"`
	Items         []OrderItemResponse `json:"items"`
	ItemCount     int                 `json:"item_count"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Shipping      decimal.Decimal     `json:"shipping"`
	Total         decimal.Decimal     `json:"total"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// CheckoutResponse is the result of a checkout
type CheckoutResponse struct {
	Order       OrderResponse              `json:"order"`
	Intent      *apppayment.IntentResponse `json:"intent"`
	RedirectURL string                     `json:"redirect_url"`
}

// OrderNumber is the short human-facing order reference
func OrderNumber(o *sales.Order) string {
	return "SE-" + strings.ToUpper(o.ID.String()[:8])
}

// ToOrderResponse converts a domain Order
func ToOrderResponse(o *sales.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Qty:       it.Qty,
			PriceAt:   it.PriceAt,
			LineTotal: it.LineTotal,
		}
	}
	return OrderResponse{
		ID:            o.ID,
		Number:        OrderNumber(o),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		Items:         items,
		ItemCount:     o.ItemCount(),
		Subtotal:      o.SubtotalAmount,
		Shipping:      o.ShippingAmount,
		Total:         o.TotalAmount,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []sales.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
