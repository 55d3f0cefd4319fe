package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
)

// FakeGatewayName is the provider id of FakeGateway
const FakeGatewayName = "fake"

// FakeGateway is a development provider. Its "checkout page" is our own
// return URL with paid=1, so the full redirect flow runs without a
// third party.
type FakeGateway struct{}

// NewFakeGateway creates a new FakeGateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// Name returns the provider id
func (g *FakeGateway) Name() string {
	return FakeGatewayName
}

// CreateSession returns the return URL itself as the redirect target
func (g *FakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if req.ReturnURL == "" {
		return nil, payment.ErrInvalidSession
	}
	sep := "?"
	if strings.Contains(req.ReturnURL, "?") {
		sep = "&"
	}
	return &payment.Session{
		SessionID:   "fake_" + req.SessionID,
		RedirectURL: req.ReturnURL + sep + "paid=1",
	}, nil
}

// Confirm reads the paid flag of the return request
func (g *FakeGateway) Confirm(_ context.Context, sessionID string, params map[string]string) (*payment.Confirmation, error) {
	if !strings.HasPrefix(sessionID, "fake_") {
		return nil, payment.ErrInvalidSession
	}
	switch strings.ToLower(params["paid"]) {
	case "1", "true", "yes":
		return &payment.Confirmation{
			Paid:          true,
			Authorization: "FAKE-" + strings.ToUpper(uuid.NewString()[:6]),
			Raw:           map[string]string{"provider": FakeGatewayName},
		}, nil
	}
	return &payment.Confirmation{
		Paid:   false,
		Reason: "payment declined",
		Raw:    map[string]string{"provider": FakeGatewayName},
	}, nil
}

var _ payment.Gateway = (*FakeGateway)(nil)
