package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements sales.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Order, error) {
	var order sales.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindByCustomer lists a customer's orders, newest first by default
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]sales.Order, error) {
	var orders []sales.Order
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByCustomer counts a customer's orders
func (r *GormOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&sales.Order{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// Save creates or updates an order. Items are written on first save only.
func (r *GormOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	return translate(r.db.WithContext(ctx).Save(order).Error)
}

var _ sales.OrderRepository = (*GormOrderRepository)(nil)
