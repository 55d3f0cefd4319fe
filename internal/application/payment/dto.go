package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
)

// Intent kinds accepted by CreateIntent
const (
	KindPayment  = "payment"
	KindDonation = "donation"
)

// CreateIntentRequest starts a payment for an arbitrary amount
type CreateIntentRequest struct {
	Amount      int64  `json:"amount" binding:"required,min=1,max=100000000"`
	Description string `json:"description" binding:"max=140"`
	Kind        string `json:"kind" binding:"omitempty,oneof=payment donation"`
}

// ReturnRequest carries the query parameters of the provider's return call
type ReturnRequest struct {
	IntentID string `form:"intent"`
	Paid     string `form:"paid"`
	TokenWS  string `form:"token_ws"`
	TBKToken string `form:"TBK_TOKEN"`
}

// IntentResponse is a payment intent in API responses
type IntentResponse struct {
	ID            uuid.UUID  `json:"id"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	RefType       string     `json:"ref_type,omitempty"`
	RefID         *uuid.UUID `json:"ref_id,omitempty"`
	Provider      string     `json:"provider"`
	RedirectURL   string     `json:"redirect_url,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ReturnResult is the outcome of a return callback
type ReturnResult struct {
	Intent IntentResponse `json:"intent"`
	// ResultURL is the front-end page to send the buyer to, if configured
	ResultURL string `json:"result_url,omitempty"`
}

// ToIntentResponse converts a domain Intent
func ToIntentResponse(i *payment.Intent) IntentResponse {
	return IntentResponse{
		ID:            i.ID,
		Amount:        i.Amount,
		Currency:      i.Currency,
		Status:        string(i.Status),
		Description:   i.Description,
		RefType:       string(i.RefType),
		RefID:         i.RefID,
		Provider:      i.Provider,
		RedirectURL:   i.RedirectURL,
		FailureReason: i.FailureReason,
		PaidAt:        i.PaidAt,
		CreatedAt:     i.CreatedAt,
	}
}
