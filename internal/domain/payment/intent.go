// Package payment models payment intents handed to an external checkout
// provider (Webpay, or the fake provider used in development).
package payment

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Status is the state of a payment intent
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusRequiresAction Status = "REQUIRES_ACTION"
	StatusPaid           Status = "PAID"
	StatusFailed         Status = "FAILED"
	StatusRefunded       Status = "REFUNDED"
)

// IsFinal reports whether the provider can no longer change the outcome
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusRefunded
}

// RefType names the kind of record an intent pays for
type RefType string

const (
	RefTypeOrder    RefType = "Order"
	RefTypeBooking  RefType = "Booking"
	RefTypeDonation RefType = "Donation"
)

// IsValid reports whether r is a known reference type
func (r RefType) IsValid() bool {
	return r == RefTypeOrder || r == RefTypeBooking || r == RefTypeDonation
}

// CurrencyCLP is the only currency the shop charges in
const CurrencyCLP = "CLP"

// Intent tracks one attempt to collect money through a provider
type Intent struct {
	shared.BaseAggregateRoot
	Amount            int64             `gorm:"not null"`
	Currency          string            `gorm:"type:varchar(3);not null;default:'CLP'"`
	Status            Status            `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Description       string            `gorm:"type:varchar(140)"`
	RefType           RefType           `gorm:"type:varchar(20);index:idx_intent_ref,priority:1"`
	RefID             *uuid.UUID        `gorm:"type:uuid;index:idx_intent_ref,priority:2"`
	CustomerID        *uuid.UUID        `gorm:"type:uuid;index"`
	Provider          string            `gorm:"type:varchar(30);not null"`
	ProviderSessionID string            `gorm:"type:varchar(120);index"`
	RedirectURL       string            `gorm:"type:varchar(500)"`
	ReturnURL         string            `gorm:"type:varchar(500)"`
	CancelURL         string            `gorm:"type:varchar(500)"`
	FailureReason     string            `gorm:"type:varchar(255)"`
	Metadata          map[string]string `gorm:"serializer:json;type:text"`
	PaidAt            *time.Time
}

// TableName returns the table name for GORM
func (Intent) TableName() string {
	return "payment_intents"
}

// NewIntent creates a pending intent in CLP
func NewIntent(amount int64, description string, refType RefType, refID *uuid.UUID, provider string) (*Intent, error) {
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be greater than zero")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > 140 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 140 characters")
	}
	if refType != "" && !refType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Unknown reference type: "+string(refType))
	}
	if provider == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider is required")
	}

	return &Intent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Amount:            amount,
		Currency:          CurrencyCLP,
		Status:            StatusPending,
		Description:       description,
		RefType:           refType,
		RefID:             refID,
		Provider:          provider,
		Metadata:          map[string]string{},
	}, nil
}

// AttachSession records the provider session and the URL to send the buyer to
func (i *Intent) AttachSession(sessionID, redirectURL string) error {
	if i.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Session can only be attached to a pending intent")
	}
	i.ProviderSessionID = sessionID
	i.RedirectURL = redirectURL
	i.Status = StatusRequiresAction
	i.touch()
	return nil
}

// MarkPaid records success. Repeated confirmations are no-ops.
func (i *Intent) MarkPaid(at time.Time) error {
	if i.Status == StatusPaid {
		return nil
	}
	if i.Status.IsFinal() {
		return shared.NewDomainError("INVALID_STATE", "Intent is already "+string(i.Status))
	}
	i.Status = StatusPaid
	i.PaidAt = &at
	i.FailureReason = ""
	i.touch()
	i.AddDomainEvent(NewPaymentSucceededEvent(i))
	return nil
}

// MarkFailed records a rejected or abandoned payment
func (i *Intent) MarkFailed(reason string) error {
	if i.Status == StatusFailed {
		return nil
	}
	if i.Status.IsFinal() {
		return shared.NewDomainError("INVALID_STATE", "Intent is already "+string(i.Status))
	}
	reason = shared.TruncateText(reason, 255)
	i.Status = StatusFailed
	i.FailureReason = reason
	i.touch()
	i.AddDomainEvent(NewPaymentFailedEvent(i))
	return nil
}

// MarkRefunded records a refund of a paid intent
func (i *Intent) MarkRefunded() error {
	if i.Status == StatusRefunded {
		return nil
	}
	if i.Status != StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Only paid intents can be refunded")
	}
	i.Status = StatusRefunded
	i.touch()
	return nil
}

// SetMeta stores a metadata key
func (i *Intent) SetMeta(key, value string) {
	if i.Metadata == nil {
		i.Metadata = map[string]string{}
	}
	i.Metadata[key] = value
}

func (i *Intent) touch() {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}
