package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductPriceChanged  = "ProductPriceChanged"
	EventTypeProductStatusChanged = "ProductStatusChanged"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		SKU:             product.SKU,
		Name:            product.Name,
		Price:           product.Price,
	}
}

// ProductPriceChangedEvent is published when the unit price changes
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// NewProductPriceChangedEvent creates a new ProductPriceChangedEvent
func NewProductPriceChangedEvent(product *Product, oldPrice decimal.Decimal) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPriceChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		OldPrice:        oldPrice,
		NewPrice:        product.Price,
	}
}

// ProductStatusChangedEvent is published on activate / deactivate
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Active    bool      `json:"active"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(product *Product) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Active:          product.Active,
	}
}
