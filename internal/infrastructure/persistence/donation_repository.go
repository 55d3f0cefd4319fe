package persistence

import (
	"context"

	"github.com/stephanos-estetic/backend/internal/domain/donation"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDonationRepository implements donation.Repository using GORM
type GormDonationRepository struct {
	db *gorm.DB
}

// NewGormDonationRepository creates a new GormDonationRepository
func NewGormDonationRepository(db *gorm.DB) *GormDonationRepository {
	return &GormDonationRepository{db: db}
}

// Create inserts a donation; the unique intent index makes it idempotent per intent
func (r *GormDonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

// FindAll lists donations
func (r *GormDonationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]donation.Donation, error) {
	var donations []donation.Donation
	query := r.db.WithContext(ctx).
		Order(orderClause(filter.OrderBy, filter.OrderDir, DonationSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

// Count counts all donations
func (r *GormDonationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&donation.Donation{}).Count(&count).Error
	return count, err
}

// Sum totals all donated amounts
func (r *GormDonationRepository) Sum(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&donation.Donation{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

var _ donation.Repository = (*GormDonationRepository)(nil)
