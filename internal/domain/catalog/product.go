package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Product represents a sellable item in the shop
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	SKU         string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(80);index"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `gorm:"not null;default:0"`
	ImageURL    string          `gorm:"column:image_url;type:varchar(500)"`
	Active      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product with zero stock
func NewProduct(sku, name string, price decimal.Decimal) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
		Name:              strings.TrimSpace(name),
		Price:             price,
		Active:            true,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's descriptive fields
func (p *Product) Update(name, description, category, imageURL string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(imageURL) > 500 {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 500 characters")
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Category = strings.TrimSpace(category)
	p.ImageURL = imageURL
	p.touch()

	return nil
}

// SetPrice changes the unit price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if p.Price.Equal(price) {
		return nil
	}

	old := p.Price
	p.Price = price
	p.touch()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, old))
	return nil
}

// SetStock overwrites the on-hand quantity
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock
	p.touch()
	return nil
}

// DecreaseStock takes qty units out of stock
func (p *Product) DecreaseStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Stock < qty {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for "+p.SKU)
	}
	p.Stock -= qty
	p.touch()
	return nil
}

// IncreaseStock puts qty units back into stock
func (p *Product) IncreaseStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.Stock += qty
	p.touch()
	return nil
}

// Activate makes the product visible and purchasable
func (p *Product) Activate() error {
	if p.Active {
		return shared.NewDomainError("INVALID_STATE", "Product is already active")
	}
	p.Active = true
	p.touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
	return nil
}

// Deactivate hides the product from the shop
func (p *Product) Deactivate() error {
	if !p.Active {
		return shared.NewDomainError("INVALID_STATE", "Product is already inactive")
	}
	p.Active = false
	p.touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
	return nil
}

// CanSell reports whether qty units can be sold right now
func (p *Product) CanSell(qty int) bool {
	return p.Active && qty > 0 && p.Stock >= qty
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, hyphens and underscores")
		}
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
