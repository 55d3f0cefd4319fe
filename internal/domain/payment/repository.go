package payment

import (
	"context"

	"github.com/google/uuid"
)

// IntentRepository persists payment intents
type IntentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Intent, error)
	FindBySession(ctx context.Context, provider, sessionID string) (*Intent, error)
	Save(ctx context.Context, intent *Intent) error
}
