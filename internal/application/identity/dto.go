package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
)

// RegisterRequest creates a customer account
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	FullName  string `json:"full_name" binding:"max=150"`
	Phone     string `json:"phone" binding:"max=30"`
}

// LoginRequest accepts a username or an email as the identifier
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshRequest carries a refresh token. The HTTP layer may fill it from a
// cookie instead of the body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	// Remaining is the access token's remaining lifetime
	Remaining time.Duration
}

// UpdateProfileRequest is a partial profile update
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	FullName  *string `json:"full_name" binding:"omitempty,max=150"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
}

// ChangePasswordRequest replaces the account password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserResponse is an account in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	IsStaff     bool       `json:"is_staff"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	DateJoined  time.Time  `json:"date_joined"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	TokenType             string       `json:"token_type"`
	User                  UserResponse `json:"user"`
	// CartID is the caller's cart after an anonymous cart was merged in
	CartID *uuid.UUID `json:"cart_id,omitempty"`
}

// MeResponse describes the caller, signed in or not
type MeResponse struct {
	IsAuthenticated bool          `json:"is_authenticated"`
	User            *UserResponse `json:"user,omitempty"`
}

// ToUserResponse converts a domain User
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName,
		Phone:       u.Phone,
		IsStaff:     u.IsStaff,
		LastLoginAt: u.LastLoginAt,
		DateJoined:  u.CreatedAt,
	}
}
