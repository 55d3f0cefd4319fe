package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormShopStatsProvider reads gauge values straight from the database
type GormShopStatsProvider struct {
	db *gorm.DB
}

// NewGormShopStatsProvider creates a stats provider
func NewGormShopStatsProvider(db *gorm.DB) *GormShopStatsProvider {
	return &GormShopStatsProvider{db: db}
}

// CountPendingOrders counts unpaid, uncancelled orders
func (p *GormShopStatsProvider) CountPendingOrders(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Table("orders").Where("status = ?", "pending").Count(&n).Error
	return n, err
}

// CountUpcomingBookings counts pending or paid bookings whose slot starts after now
func (p *GormShopStatsProvider) CountUpcomingBookings(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Table("bookings").
		Joins("JOIN availability_slots ON availability_slots.id = bookings.slot_id").
		Where("bookings.status IN ?", []string{"pending", "paid"}).
		Where("availability_slots.starts_at > ?", now).
		Count(&n).Error
	return n, err
}

// CountLowStockProducts counts active products with stock at or below threshold
func (p *GormShopStatsProvider) CountLowStockProducts(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("active = ? AND stock <= ?", true, threshold).
		Count(&n).Error
	return n, err
}

var _ ShopStatsProvider = (*GormShopStatsProvider)(nil)
