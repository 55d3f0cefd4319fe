package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormServiceRepository implements booking.ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID finds a service by ID
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Service, error) {
	var svc booking.Service
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

// FindBySlug finds a service by slug
func (r *GormServiceRepository) FindBySlug(ctx context.Context, slug string) (*booking.Service, error) {
	var svc booking.Service
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&svc).Error; err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

// FindAll lists services matching the filter
func (r *GormServiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]booking.Service, error) {
	var services []booking.Service
	query := r.applyFilter(r.db.WithContext(ctx).Model(&booking.Service{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, ServiceSortFields, "name"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// Count counts services matching the filter
func (r *GormServiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&booking.Service{}), filter).Count(&count).Error
	return count, err
}

// ExistsBySlug checks whether a slug is taken
func (r *GormServiceRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&booking.Service{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a service
func (r *GormServiceRepository) Save(ctx context.Context, svc *booking.Service) error {
	return translate(r.db.WithContext(ctx).Save(svc).Error)
}

func (r *GormServiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if v, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", v)
	}
	return query
}

// GormSlotRepository implements booking.SlotRepository using GORM
type GormSlotRepository struct {
	db *gorm.DB
}

// NewGormSlotRepository creates a new GormSlotRepository
func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

// FindByID finds a slot by ID
func (r *GormSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.AvailabilitySlot, error) {
	var slot booking.AvailabilitySlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &slot, nil
}

// FindOpen returns active slots without a booking, ordered by start time.
// A slot keeps its booking row after cancellation, so cancelled slots stay closed.
func (r *GormSlotRepository) FindOpen(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]booking.AvailabilitySlot, error) {
	var slots []booking.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND is_active = ? AND starts_at >= ? AND starts_at < ?", serviceID, true, from.UTC(), to.UTC()).
		Where("NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = availability_slots.id)").
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// FindOverlapping returns active slots of a service intersecting [from, to)
func (r *GormSlotRepository) FindOverlapping(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]booking.AvailabilitySlot, error) {
	var slots []booking.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND is_active = ? AND starts_at < ? AND ends_at > ?", serviceID, true, to.UTC(), from.UTC()).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// Save creates or updates a slot
func (r *GormSlotRepository) Save(ctx context.Context, slot *booking.AvailabilitySlot) error {
	return translate(r.db.WithContext(ctx).Save(slot).Error)
}

// GormBookingRepository implements booking.BookingRepository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// FindByCustomer lists a customer's bookings
func (r *GormBookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]booking.Booking, error) {
	var bookings []booking.Booking
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order(orderClause(filter.OrderBy, filter.OrderDir, BookingSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountByCustomer counts a customer's bookings
func (r *GormBookingRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&booking.Booking{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// Create inserts a new booking; the unique slot index rejects double bookings
func (r *GormBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

// Save updates a booking
func (r *GormBookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	return translate(r.db.WithContext(ctx).Save(b).Error)
}

var (
	_ booking.ServiceRepository = (*GormServiceRepository)(nil)
	_ booking.SlotRepository    = (*GormSlotRepository)(nil)
	_ booking.BookingRepository = (*GormBookingRepository)(nil)
)
