package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// cartModel is the row shape of a cart; lines live in cart_items
type cartModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID   *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	Items     []cartItemModel `gorm:"foreignKey:CartID;references:ID"`
	Version   int             `gorm:"not null;default:1"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (cartModel) TableName() string { return "carts" }

type cartItemModel struct {
	CartID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ImageURL  string          `gorm:"column:image_url;type:varchar(500)"`
	Qty       int             `gorm:"not null"`
	Category  string          `gorm:"type:varchar(80)"`
}

func (cartItemModel) TableName() string { return "cart_items" }

// GormCartStore implements cart.Store on PostgreSQL
type GormCartStore struct {
	db *gorm.DB
}

// NewGormCartStore creates a new GormCartStore
func NewGormCartStore(db *gorm.DB) *GormCartStore {
	return &GormCartStore{db: db}
}

// Get loads a cart by id
func (s *GormCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return s.load(ctx, "id = ?", id)
}

// GetByOwner loads the cart owned by a user
func (s *GormCartStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*cart.Cart, error) {
	return s.load(ctx, "owner_id = ?", ownerID)
}

func (s *GormCartStore) load(ctx context.Context, where string, arg uuid.UUID) (*cart.Cart, error) {
	var m cartModel
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where(where, arg).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	c := m.toDomain()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cart %s: %w", m.ID, err)
	}
	return c, nil
}

// Save replaces the cart row and all of its lines atomically. The row is
// only written while its version still matches the one the caller loaded.
func (s *GormCartStore) Save(ctx context.Context, c *cart.Cart) error {
	m := fromDomainCart(c)
	m.Version = c.Version + 1

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.Version == 0 {
			if err := tx.Omit("Items").Create(&m).Error; err != nil {
				// another request created this cart, or the owner's cart, first
				if errors.Is(translate(err), shared.ErrAlreadyExists) {
					return shared.ErrConcurrencyConflict
				}
				return err
			}
		} else {
			result := tx.Model(&cartModel{}).
				Where("id = ? AND version = ?", m.ID, c.Version).
				Updates(map[string]interface{}{
					"owner_id":   m.OwnerID,
					"updated_at": m.UpdatedAt,
					"version":    m.Version,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
		}

		if err := tx.Where("cart_id = ?", m.ID).Delete(&cartItemModel{}).Error; err != nil {
			return err
		}
		if len(m.Items) == 0 {
			return nil
		}
		return tx.Create(&m.Items).Error
	})
	if err != nil {
		return translate(err)
	}
	c.Version = m.Version
	return nil
}

// Delete removes a cart and its lines
func (s *GormCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&cartItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&cartModel{}).Error
	})
}

func fromDomainCart(c *cart.Cart) cartModel {
	m := cartModel{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Items:     make([]cartItemModel, len(c.Items)),
	}
	for i, it := range c.Items {
		m.Items[i] = cartItemModel{
			CartID:    c.ID,
			ProductID: it.ID,
			Position:  i,
			Name:      it.Name,
			Price:     it.Price,
			ImageURL:  it.ImageURL,
			Qty:       it.Qty,
			Category:  it.Category,
		}
	}
	return m
}

func (m cartModel) toDomain() *cart.Cart {
	c := &cart.Cart{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Items:     make([]cart.LineItem, len(m.Items)),
	}
	for i, it := range m.Items {
		c.Items[i] = cart.LineItem{
			ID:       it.ProductID,
			Name:     it.Name,
			Price:    it.Price,
			ImageURL: it.ImageURL,
			Qty:      it.Qty,
			Category: it.Category,
		}
	}
	return c
}

var _ cart.Store = (*GormCartStore)(nil)
