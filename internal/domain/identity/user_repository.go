package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a new user; duplicate username/email yields shared.ErrAlreadyExists
	Create(ctx context.Context, user *User) error

	// Update saves changes to an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username (case-insensitive)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByEmail finds a user by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if an email already exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
