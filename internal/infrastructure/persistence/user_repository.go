package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// Update saves changes to an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByUsername finds a user by username, ignoring case
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ExistsByUsername checks if a username already exists
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

// ExistsByEmail checks if an email already exists
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) exists(ctx context.Context, where string, arg string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&identity.User{}).Where(where, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
