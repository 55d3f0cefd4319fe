package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"gorm.io/gorm"
)

// GormIntentRepository implements payment.IntentRepository using GORM
type GormIntentRepository struct {
	db *gorm.DB
}

// NewGormIntentRepository creates a new GormIntentRepository
func NewGormIntentRepository(db *gorm.DB) *GormIntentRepository {
	return &GormIntentRepository{db: db}
}

// FindByID finds an intent by ID
func (r *GormIntentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Intent, error) {
	var intent payment.Intent
	if err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &intent, nil
}

// FindBySession finds an intent by the provider's session identifier
func (r *GormIntentRepository) FindBySession(ctx context.Context, provider, sessionID string) (*payment.Intent, error) {
	var intent payment.Intent
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_session_id = ?", provider, sessionID).
		First(&intent).Error; err != nil {
		return nil, translate(err)
	}
	return &intent, nil
}

// Save creates or updates an intent
func (r *GormIntentRepository) Save(ctx context.Context, intent *payment.Intent) error {
	return translate(r.db.WithContext(ctx).Save(intent).Error)
}

var _ payment.IntentRepository = (*GormIntentRepository)(nil)
