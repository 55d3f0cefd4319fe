// Package donation records paid donation intents and exposes the staff listing.
package donation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/donation"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DonationResponse is a donation in API responses
type DonationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Amount    int64      `json:"amount"`
	IntentID  uuid.UUID  `json:"intent_id"`
	DonorID   *uuid.UUID `json:"donor_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListResult is a page of donations with the running total
type ListResult struct {
	shared.Paginated[DonationResponse]
	TotalAmount int64 `json:"total_amount"`
}

// DonationService records and lists donations
type DonationService struct {
	repo   donation.Repository
	logger *zap.Logger
}

// NewDonationService creates a new DonationService
func NewDonationService(repo donation.Repository, logger *zap.Logger) *DonationService {
	return &DonationService{repo: repo, logger: logger}
}

// Record stores a donation for a paid intent. A second call for the same
// intent is a no-op.
func (s *DonationService) Record(ctx context.Context, intentID uuid.UUID, amount int64, donorID *uuid.UUID) error {
	d, err := donation.NewDonation(intentID, amount, donorID)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Debug("donation already recorded", zap.String("intent_id", intentID.String()))
			return nil
		}
		return err
	}
	s.logger.Info("donation recorded",
		zap.String("intent_id", intentID.String()),
		zap.Int64("amount", amount),
	)
	return nil
}

// List returns donations newest first
func (s *DonationService) List(ctx context.Context, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.Sum(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]DonationResponse, len(items))
	for i, d := range items {
		responses[i] = DonationResponse{
			ID:        d.ID,
			Amount:    d.Amount,
			IntentID:  d.IntentID,
			DonorID:   d.DonorID,
			CreatedAt: d.CreatedAt,
		}
	}
	return &ListResult{
		Paginated:   shared.NewPaginated(responses, total, page, pageSize),
		TotalAmount: sum,
	}, nil
}

// PaymentSucceededHandler records donations when their intent is paid
type PaymentSucceededHandler struct {
	service *DonationService
	logger  *zap.Logger
}

// NewPaymentSucceededHandler creates a new PaymentSucceededHandler
func NewPaymentSucceededHandler(service *DonationService, logger *zap.Logger) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentSucceededHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentSucceeded}
}

// Handle processes a PaymentSucceeded event
func (h *PaymentSucceededHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payment.PaymentSucceededEvent)
	if !ok {
		return nil
	}
	if e.RefType != payment.RefTypeDonation {
		return nil
	}
	return h.service.Record(ctx, e.IntentID, e.Amount, e.CustomerID)
}
