package contact

import (
	"context"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// MessageRepository persists contact messages
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	// FindAll lists messages newest first; filter key "handled" (bool) narrows the list
	FindAll(ctx context.Context, filter shared.Filter) ([]Message, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, m *Message) error
}
