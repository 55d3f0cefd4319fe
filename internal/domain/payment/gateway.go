package payment

import (
	"context"
	"errors"
)

// Gateway errors
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidSession     = errors.New("invalid payment session")
	ErrUnknownProvider    = errors.New("unknown payment provider")
)

// SessionRequest describes the charge to open with a provider
type SessionRequest struct {
	IntentID    string
	Amount      int64
	Currency    string
	Description string
	// ReturnURL is where the provider sends the buyer back to
	ReturnURL string
	SessionID string
}

// Session is what the provider gives back: a token and the page to visit
type Session struct {
	SessionID   string
	RedirectURL string
	// Token is posted to RedirectURL by providers that need it (token_ws)
	Token string
}

// Confirmation is the provider's verdict on a session
type Confirmation struct {
	Paid          bool
	Amount        int64
	Authorization string
	Reason        string
	Raw           map[string]string
}

// Gateway is a hosted-checkout payment provider
type Gateway interface {
	// Name returns the provider id stored on intents ("webpay", "fake")
	Name() string

	// CreateSession opens a checkout session
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// Confirm settles a session after the buyer returns.
	// params carries the query parameters of the return request.
	Confirm(ctx context.Context, sessionID string, params map[string]string) (*Confirmation, error)
}
