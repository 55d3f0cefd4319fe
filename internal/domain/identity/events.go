package identity

import (
	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeUser = "User"

// EventTypeUserRegistered is published when a new account is created
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when a new account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Username:        u.Username,
		Email:           u.Email,
	}
}
