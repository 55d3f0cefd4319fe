// Package payment drives the hosted-checkout redirect flow: it opens provider
// sessions for intents and settles them when the buyer returns.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Metrics records payment outcomes
type Metrics interface {
	RecordPayment(ctx context.Context, provider, status string)
}

// Config holds the URLs and provider used for new intents
type Config struct {
	// Provider is the gateway name used for new intents
	Provider string
	// ReturnURL is our own endpoint the provider sends the buyer back to
	ReturnURL string
	// ResultURL is the front-end page that shows the outcome; optional
	ResultURL string
}

// PaymentService manages payment intents
type PaymentService struct {
	intents        payment.IntentRepository
	orders         sales.OrderRepository
	bookings       booking.BookingRepository
	services       booking.ServiceRepository
	gateways       map[string]payment.Gateway
	cfg            Config
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService. The configured provider
// must be among the gateways.
func NewPaymentService(
	intents payment.IntentRepository,
	orders sales.OrderRepository,
	gateways []payment.Gateway,
	cfg Config,
	logger *zap.Logger,
) (*PaymentService, error) {
	byName := make(map[string]payment.Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	if _, ok := byName[cfg.Provider]; !ok {
		return nil, fmt.Errorf("%w: %q", payment.ErrUnknownProvider, cfg.Provider)
	}
	if cfg.ReturnURL == "" {
		return nil, errors.New("payment return URL is required")
	}
	return &PaymentService{
		intents:  intents,
		orders:   orders,
		gateways: byName,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBookingRepositories enables paying for bookings
func (s *PaymentService) SetBookingRepositories(bookings booking.BookingRepository, services booking.ServiceRepository) {
	s.bookings = bookings
	s.services = services
}

// SetMetrics sets the outcome recorder
func (s *PaymentService) SetMetrics(m Metrics) {
	s.metrics = m
}

// CreateIntent starts a payment for an arbitrary amount (donations and the
// cart page's pay button)
func (s *PaymentService) CreateIntent(ctx context.Context, customerID *uuid.UUID, req CreateIntentRequest) (*IntentResponse, error) {
	var refType payment.RefType
	description := strings.TrimSpace(req.Description)
	if req.Kind == KindDonation {
		refType = payment.RefTypeDonation
		if description == "" {
			description = "Donación"
		}
	}
	if description == "" {
		description = "Pago"
	}

	intent, err := payment.NewIntent(req.Amount, description, refType, nil, s.cfg.Provider)
	if err != nil {
		return nil, err
	}
	intent.CustomerID = customerID
	return s.start(ctx, intent)
}

// CreateForOrder starts the payment of a pending order
func (s *PaymentService) CreateForOrder(ctx context.Context, order *sales.Order) (*IntentResponse, error) {
	if order.Status != sales.OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Only pending orders can be paid")
	}
	amount := order.TotalAmount.Round(0).IntPart()
	description := "Pedido SE-" + strings.ToUpper(order.ID.String()[:8])

	intent, err := payment.NewIntent(amount, description, payment.RefTypeOrder, &order.ID, s.cfg.Provider)
	if err != nil {
		return nil, err
	}
	intent.CustomerID = order.CustomerID
	return s.start(ctx, intent)
}

// PayOrder starts a new payment attempt for an existing order
func (s *PaymentService) PayOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID, isStaff bool) (*IntentResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isStaff && !order.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return s.CreateForOrder(ctx, order)
}

// PayBooking starts the payment of a pending booking at its service price
func (s *PaymentService) PayBooking(ctx context.Context, bookingID uuid.UUID, userID uuid.UUID, isStaff bool) (*IntentResponse, error) {
	if s.bookings == nil || s.services == nil {
		return nil, shared.NewDomainError("PAYMENT_UNAVAILABLE", "Booking payments are not enabled")
	}
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isStaff && !b.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	if b.Status != booking.StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Only pending bookings can be paid")
	}
	svc, err := s.services.FindByID(ctx, b.ServiceID)
	if err != nil {
		return nil, err
	}
	amount := svc.Price.Round(0).IntPart()
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "This service is paid at the clinic")
	}

	description := shared.TruncateText("Reserva "+svc.Name, 140)
	intent, err := payment.NewIntent(amount, description, payment.RefTypeBooking, &b.ID, s.cfg.Provider)
	if err != nil {
		return nil, err
	}
	intent.CustomerID = b.CustomerID
	return s.start(ctx, intent)
}

func (s *PaymentService) start(ctx context.Context, intent *payment.Intent) (*IntentResponse, error) {
	gateway := s.gateways[intent.Provider]
	if err := s.intents.Save(ctx, intent); err != nil {
		return nil, err
	}

	session, err := gateway.CreateSession(ctx, payment.SessionRequest{
		IntentID:    intent.ID.String(),
		Amount:      intent.Amount,
		Currency:    intent.Currency,
		Description: intent.Description,
		ReturnURL:   s.returnURL(intent.ID),
		SessionID:   strings.ReplaceAll(intent.ID.String(), "-", "")[:26],
	})
	if err != nil {
		s.logger.Error("failed to open payment session",
			zap.String("intent_id", intent.ID.String()),
			zap.String("provider", intent.Provider),
			zap.Error(err),
		)
		_ = intent.MarkFailed("gateway error: " + err.Error())
		intent.ClearDomainEvents()
		if saveErr := s.intents.Save(ctx, intent); saveErr != nil {
			s.logger.Warn("failed to persist failed intent", zap.Error(saveErr))
		}
		s.record(ctx, intent)
		return nil, shared.NewDomainError("PAYMENT_UNAVAILABLE", "The payment provider is not available, please try again")
	}

	if err := intent.AttachSession(session.SessionID, session.RedirectURL); err != nil {
		return nil, err
	}
	if session.Token != "" {
		intent.SetMeta("token", session.Token)
	}
	if err := s.intents.Save(ctx, intent); err != nil {
		return nil, err
	}

	s.logger.Info("payment session opened",
		zap.String("intent_id", intent.ID.String()),
		zap.String("provider", intent.Provider),
		zap.Int64("amount", intent.Amount),
	)
	resp := ToIntentResponse(intent)
	return &resp, nil
}

// HandleReturn settles an intent when the buyer comes back from the
// provider. Repeated callbacks for a settled intent return it unchanged.
func (s *PaymentService) HandleReturn(ctx context.Context, req ReturnRequest) (*ReturnResult, error) {
	intent, aborted, err := s.locate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !intent.Status.IsFinal() {
		if aborted {
			_ = intent.MarkFailed("payment aborted by the customer")
		} else if err := s.confirm(ctx, intent, req); err != nil {
			return nil, err
		}
		if err := s.intents.Save(ctx, intent); err != nil {
			return nil, err
		}
		s.record(ctx, intent)
		s.publish(ctx, intent)
	}

	return &ReturnResult{
		Intent:    ToIntentResponse(intent),
		ResultURL: s.resultURL(intent),
	}, nil
}

func (s *PaymentService) locate(ctx context.Context, req ReturnRequest) (*payment.Intent, bool, error) {
	switch {
	case req.TokenWS != "":
		intent, err := s.intents.FindBySession(ctx, "webpay", req.TokenWS)
		return intent, false, err
	case req.TBKToken != "":
		intent, err := s.intents.FindBySession(ctx, "webpay", req.TBKToken)
		return intent, true, err
	case req.IntentID != "":
		id, err := uuid.Parse(req.IntentID)
		if err != nil {
			return nil, false, shared.NewDomainError("INVALID_INPUT", "Invalid intent id")
		}
		intent, err := s.intents.FindByID(ctx, id)
		return intent, false, err
	}
	return nil, false, shared.NewDomainError("INVALID_INPUT", "Missing payment reference")
}

func (s *PaymentService) confirm(ctx context.Context, intent *payment.Intent, req ReturnRequest) error {
	gateway, ok := s.gateways[intent.Provider]
	if !ok {
		return fmt.Errorf("%w: %q", payment.ErrUnknownProvider, intent.Provider)
	}

	conf, err := gateway.Confirm(ctx, intent.ProviderSessionID, map[string]string{
		"paid":     req.Paid,
		"token_ws": req.TokenWS,
	})
	if err != nil {
		s.logger.Error("failed to confirm payment",
			zap.String("intent_id", intent.ID.String()),
			zap.Error(err),
		)
		return shared.NewDomainError("PAYMENT_UNAVAILABLE", "Could not confirm the payment, please try again")
	}

	for k, v := range conf.Raw {
		intent.SetMeta(k, v)
	}
	if !conf.Paid {
		return intent.MarkFailed(conf.Reason)
	}
	if conf.Amount > 0 && conf.Amount != intent.Amount {
		return intent.MarkFailed(fmt.Sprintf("amount mismatch: charged %d, expected %d", conf.Amount, intent.Amount))
	}
	if conf.Authorization != "" {
		intent.SetMeta("authorization_code", conf.Authorization)
	}
	return intent.MarkPaid(s.now())
}

// Cancel abandons an unsettled intent
func (s *PaymentService) Cancel(ctx context.Context, intentID uuid.UUID, userID *uuid.UUID) (*IntentResponse, error) {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !canSee(intent, userID, false) {
		return nil, shared.ErrNotFound
	}
	if err := intent.MarkFailed("cancelled by the customer"); err != nil {
		return nil, err
	}
	if err := s.intents.Save(ctx, intent); err != nil {
		return nil, err
	}
	s.record(ctx, intent)
	s.publish(ctx, intent)

	resp := ToIntentResponse(intent)
	return &resp, nil
}

// Get returns an intent. Intents tied to a customer are only shown to that
// customer or staff.
func (s *PaymentService) Get(ctx context.Context, intentID uuid.UUID, userID *uuid.UUID, isStaff bool) (*IntentResponse, error) {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !canSee(intent, userID, isStaff) {
		return nil, shared.ErrNotFound
	}
	resp := ToIntentResponse(intent)
	return &resp, nil
}

func canSee(intent *payment.Intent, userID *uuid.UUID, isStaff bool) bool {
	if isStaff || intent.CustomerID == nil {
		return true
	}
	return userID != nil && *userID == *intent.CustomerID
}

func (s *PaymentService) returnURL(intentID uuid.UUID) string {
	sep := "?"
	if strings.Contains(s.cfg.ReturnURL, "?") {
		sep = "&"
	}
	return s.cfg.ReturnURL + sep + "intent=" + intentID.String()
}

func (s *PaymentService) resultURL(intent *payment.Intent) string {
	if s.cfg.ResultURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("intent", intent.ID.String())
	q.Set("status", string(intent.Status))
	if intent.RefType != "" {
		q.Set("ref_type", string(intent.RefType))
	}
	return s.cfg.ResultURL + "?" + q.Encode()
}

func (s *PaymentService) publish(ctx context.Context, intent *payment.Intent) {
	events := intent.GetDomainEvents()
	intent.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish payment events",
			zap.String("intent_id", intent.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *PaymentService) record(ctx context.Context, intent *payment.Intent) {
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, intent.Provider, string(intent.Status))
	}
}
