package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/contact"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMessageRepository implements contact.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create inserts a message
func (r *GormMessageRepository) Create(ctx context.Context, m *contact.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// FindByID finds a message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.Message, error) {
	var m contact.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindAll lists messages matching the filter
func (r *GormMessageRepository) FindAll(ctx context.Context, filter shared.Filter) ([]contact.Message, error) {
	var messages []contact.Message
	query := r.applyFilter(r.db.WithContext(ctx).Model(&contact.Message{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, MessageSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Count counts messages matching the filter
func (r *GormMessageRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&contact.Message{}), filter).Count(&count).Error
	return count, err
}

// Save updates a message
func (r *GormMessageRepository) Save(ctx context.Context, m *contact.Message) error {
	return translate(r.db.WithContext(ctx).Save(m).Error)
}

func (r *GormMessageRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters["handled"]; ok {
		query = query.Where("handled = ?", v)
	}
	return query
}

var _ contact.MessageRepository = (*GormMessageRepository)(nil)
