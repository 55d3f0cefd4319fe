package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIntentRepository struct {
	mock.Mock
}

func (m *MockIntentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockIntentRepository) FindBySession(ctx context.Context, provider, sessionID string) (*payment.Intent, error) {
	args := m.Called(ctx, provider, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockIntentRepository) Save(ctx context.Context, intent *payment.Intent) error {
	return m.Called(ctx, intent).Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]sales.Order, error) {
	args := m.Called(ctx, customerID, filter)
	return args.Get(0).([]sales.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	return m.Called(ctx, order).Error(0)
}

// stubGateway behaves like the fake provider
type stubGateway struct {
	createErr  error
	confirmErr error
	conf       *payment.Confirmation
	sessions   []payment.SessionRequest
}

func (g *stubGateway) Name() string { return "fake" }

func (g *stubGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.sessions = append(g.sessions, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &payment.Session{SessionID: "sess-" + req.SessionID, RedirectURL: req.ReturnURL + "&paid=1"}, nil
}

func (g *stubGateway) Confirm(_ context.Context, _ string, params map[string]string) (*payment.Confirmation, error) {
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	if g.conf != nil {
		return g.conf, nil
	}
	return &payment.Confirmation{Paid: params["paid"] == "1", Reason: "declined"}, nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type recordingMetrics struct {
	statuses []string
}

func (m *recordingMetrics) RecordPayment(_ context.Context, _, status string) {
	m.statuses = append(m.statuses, status)
}

func newTestService(t *testing.T, gw *stubGateway, cfg Config) (*PaymentService, *MockIntentRepository, *MockOrderRepository, *recordingPublisher) {
	t.Helper()
	intents := new(MockIntentRepository)
	orders := new(MockOrderRepository)
	if cfg.Provider == "" {
		cfg.Provider = "fake"
	}
	if cfg.ReturnURL == "" {
		cfg.ReturnURL = "http://api.test/api/v1/payments/return"
	}
	svc, err := NewPaymentService(intents, orders, []payment.Gateway{gw}, cfg, zap.NewNop())
	require.NoError(t, err)
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, intents, orders, pub
}

func pendingIntent(t *testing.T, refType payment.RefType) *payment.Intent {
	t.Helper()
	intent, err := payment.NewIntent(15000, "Pago", refType, nil, "fake")
	require.NoError(t, err)
	require.NoError(t, intent.AttachSession("sess-1", "http://x"))
	return intent
}

func TestNewPaymentService_UnknownProvider(t *testing.T) {
	_, err := NewPaymentService(nil, nil, []payment.Gateway{&stubGateway{}}, Config{Provider: "webpay", ReturnURL: "http://x"}, zap.NewNop())
	assert.ErrorIs(t, err, payment.ErrUnknownProvider)
}

func TestPaymentService_CreateIntent(t *testing.T) {
	gw := &stubGateway{}
	svc, intents, _, _ := newTestService(t, gw, Config{})
	intents.On("Save", mock.Anything, mock.AnythingOfType("*payment.Intent")).Return(nil)

	userID := uuid.New()
	resp, err := svc.CreateIntent(context.Background(), &userID, CreateIntentRequest{Amount: 5000, Kind: KindDonation})
	require.NoError(t, err)

	assert.Equal(t, string(payment.StatusRequiresAction), resp.Status)
	assert.Equal(t, string(payment.RefTypeDonation), resp.RefType)
	assert.Equal(t, "Donación", resp.Description)
	assert.Contains(t, resp.RedirectURL, "intent="+resp.ID.String())
	require.Len(t, gw.sessions, 1)
	assert.Equal(t, int64(5000), gw.sessions[0].Amount)
	assert.Equal(t, "http://api.test/api/v1/payments/return?intent="+resp.ID.String(), gw.sessions[0].ReturnURL)
	intents.AssertNumberOfCalls(t, "Save", 2)
}

func TestPaymentService_CreateIntent_InvalidAmount(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})

	_, err := svc.CreateIntent(context.Background(), nil, CreateIntentRequest{Amount: 0})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
}

func TestPaymentService_CreateIntent_GatewayDown(t *testing.T) {
	gw := &stubGateway{createErr: payment.ErrGatewayUnavailable}
	svc, intents, _, pub := newTestService(t, gw, Config{})
	metrics := &recordingMetrics{}
	svc.SetMetrics(metrics)

	var saved []payment.Status
	intents.On("Save", mock.Anything, mock.AnythingOfType("*payment.Intent")).
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*payment.Intent).Status) }).
		Return(nil)

	_, err := svc.CreateIntent(context.Background(), nil, CreateIntentRequest{Amount: 1000})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PAYMENT_UNAVAILABLE", domainErr.Code)
	assert.Equal(t, []payment.Status{payment.StatusPending, payment.StatusFailed}, saved)
	assert.Empty(t, pub.events)
	assert.Equal(t, []string{"FAILED"}, metrics.statuses)
}

func TestPaymentService_CreateForOrder(t *testing.T) {
	gw := &stubGateway{}
	svc, intents, _, _ := newTestService(t, gw, Config{})
	intents.On("Save", mock.Anything, mock.AnythingOfType("*payment.Intent")).Return(nil)

	userID := uuid.New()
	order, err := sales.NewOrder(sales.Customer{UserID: &userID, Name: "Ana"})
	require.NoError(t, err)
	require.NoError(t, order.AddItem(uuid.New(), "SKU-1", "Crema", 2, decimal.NewFromInt(12990)))

	resp, err := svc.CreateForOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(25980), resp.Amount)
	assert.Equal(t, string(payment.RefTypeOrder), resp.RefType)
	require.NotNil(t, resp.RefID)
	assert.Equal(t, order.ID, *resp.RefID)
}

func TestPaymentService_PayOrder_NotOwner(t *testing.T) {
	svc, _, orders, _ := newTestService(t, &stubGateway{}, Config{})
	owner := uuid.New()
	order, err := sales.NewOrder(sales.Customer{UserID: &owner, Name: "Ana"})
	require.NoError(t, err)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err = svc.PayOrder(context.Background(), order.ID, uuid.New(), false)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type bookingLookup struct {
	booking.BookingRepository
	b *booking.Booking
}

func (r *bookingLookup) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	if r.b == nil || r.b.ID != id {
		return nil, shared.ErrNotFound
	}
	return r.b, nil
}

type serviceLookup struct {
	booking.ServiceRepository
	svc *booking.Service
}

func (r *serviceLookup) FindByID(_ context.Context, id uuid.UUID) (*booking.Service, error) {
	if r.svc == nil || r.svc.ID != id {
		return nil, shared.ErrNotFound
	}
	return r.svc, nil
}

// bookingRepos serves one booking and its service
type bookingRepos struct {
	bookings *bookingLookup
	services *serviceLookup
	b        *booking.Booking
}

func newPendingBooking(t *testing.T, owner *uuid.UUID, price int64) *bookingRepos {
	t.Helper()
	svc, err := booking.NewService("Limpieza facial", 60, decimal.NewFromInt(price))
	require.NoError(t, err)
	now := time.Now()
	slot, err := booking.NewSlotForService(svc, now.Add(24*time.Hour))
	require.NoError(t, err)
	b, err := booking.NewBooking(slot, svc, booking.Customer{UserID: owner, Name: "Ana", Email: "ana@example.com"}, "", now)
	require.NoError(t, err)
	return &bookingRepos{bookings: &bookingLookup{b: b}, services: &serviceLookup{svc: svc}, b: b}
}

func TestPaymentService_PayBooking(t *testing.T) {
	owner := uuid.New()

	t.Run("opens an intent at the service price", func(t *testing.T) {
		gw := &stubGateway{}
		svc, intents, _, _ := newTestService(t, gw, Config{})
		intents.On("Save", mock.Anything, mock.AnythingOfType("*payment.Intent")).Return(nil)
		repos := newPendingBooking(t, &owner, 24990)
		svc.SetBookingRepositories(repos.bookings, repos.services)

		resp, err := svc.PayBooking(context.Background(), repos.b.ID, owner, false)
		require.NoError(t, err)
		assert.Equal(t, int64(24990), resp.Amount)
		assert.Equal(t, string(payment.RefTypeBooking), resp.RefType)
		require.NotNil(t, resp.RefID)
		assert.Equal(t, repos.b.ID, *resp.RefID)
		require.Len(t, gw.sessions, 1)
		assert.Equal(t, "Reserva Limpieza facial", gw.sessions[0].Description)
	})

	t.Run("other customers cannot pay it", func(t *testing.T) {
		svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})
		repos := newPendingBooking(t, &owner, 24990)
		svc.SetBookingRepositories(repos.bookings, repos.services)

		_, err := svc.PayBooking(context.Background(), repos.b.ID, uuid.New(), false)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("only pending bookings", func(t *testing.T) {
		svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})
		repos := newPendingBooking(t, &owner, 24990)
		require.NoError(t, repos.b.Cancel())
		svc.SetBookingRepositories(repos.bookings, repos.services)

		_, err := svc.PayBooking(context.Background(), repos.b.ID, owner, false)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("free services have nothing to pay", func(t *testing.T) {
		svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})
		repos := newPendingBooking(t, &owner, 0)
		svc.SetBookingRepositories(repos.bookings, repos.services)

		_, err := svc.PayBooking(context.Background(), repos.b.ID, owner, true)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("not configured", func(t *testing.T) {
		svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})
		_, err := svc.PayBooking(context.Background(), uuid.New(), owner, false)
		assert.Error(t, err)
	})
}

func TestPaymentService_HandleReturn_Paid(t *testing.T) {
	svc, intents, _, pub := newTestService(t, &stubGateway{}, Config{ResultURL: "http://shop.test/pago"})
	intent := pendingIntent(t, payment.RefTypeDonation)
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)
	intents.On("Save", mock.Anything, intent).Return(nil)

	result, err := svc.HandleReturn(context.Background(), ReturnRequest{IntentID: intent.ID.String(), Paid: "1"})
	require.NoError(t, err)

	assert.Equal(t, "PAID", result.Intent.Status)
	require.NotNil(t, result.Intent.PaidAt)
	assert.Contains(t, result.ResultURL, "status=PAID")
	assert.Contains(t, result.ResultURL, "http://shop.test/pago?")
	require.Len(t, pub.events, 1)
	assert.Equal(t, payment.EventTypePaymentSucceeded, pub.events[0].EventType())
}

func TestPaymentService_HandleReturn_Declined(t *testing.T) {
	svc, intents, _, pub := newTestService(t, &stubGateway{}, Config{})
	intent := pendingIntent(t, "")
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)
	intents.On("Save", mock.Anything, intent).Return(nil)

	result, err := svc.HandleReturn(context.Background(), ReturnRequest{IntentID: intent.ID.String(), Paid: "0"})
	require.NoError(t, err)

	assert.Equal(t, "FAILED", result.Intent.Status)
	assert.Equal(t, "declined", result.Intent.FailureReason)
	assert.Empty(t, result.ResultURL)
	require.Len(t, pub.events, 1)
	assert.Equal(t, payment.EventTypePaymentFailed, pub.events[0].EventType())
}

func TestPaymentService_HandleReturn_Idempotent(t *testing.T) {
	svc, intents, _, pub := newTestService(t, &stubGateway{}, Config{})
	intent := pendingIntent(t, "")
	require.NoError(t, intent.MarkPaid(time.Now()))
	intent.ClearDomainEvents()
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)

	result, err := svc.HandleReturn(context.Background(), ReturnRequest{IntentID: intent.ID.String(), Paid: "0"})
	require.NoError(t, err)

	assert.Equal(t, "PAID", result.Intent.Status)
	assert.Empty(t, pub.events)
	intents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleReturn_AmountMismatch(t *testing.T) {
	gw := &stubGateway{conf: &payment.Confirmation{Paid: true, Amount: 1}}
	svc, intents, _, _ := newTestService(t, gw, Config{})
	intent := pendingIntent(t, "")
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)
	intents.On("Save", mock.Anything, intent).Return(nil)

	result, err := svc.HandleReturn(context.Background(), ReturnRequest{IntentID: intent.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", result.Intent.Status)
	assert.Contains(t, result.Intent.FailureReason, "amount mismatch")
}

func TestPaymentService_HandleReturn_ConfirmError(t *testing.T) {
	gw := &stubGateway{confirmErr: payment.ErrGatewayUnavailable}
	svc, intents, _, _ := newTestService(t, gw, Config{})
	intent := pendingIntent(t, "")
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)

	_, err := svc.HandleReturn(context.Background(), ReturnRequest{IntentID: intent.ID.String(), Paid: "1"})
	require.Error(t, err)
	assert.Equal(t, payment.StatusRequiresAction, intent.Status)
	intents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleReturn_WebpayAbort(t *testing.T) {
	svc, intents, _, _ := newTestService(t, &stubGateway{}, Config{})
	intent := pendingIntent(t, "")
	intents.On("FindBySession", mock.Anything, "webpay", "tbk-1").Return(intent, nil)
	intents.On("Save", mock.Anything, intent).Return(nil)

	result, err := svc.HandleReturn(context.Background(), ReturnRequest{TBKToken: "tbk-1"})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", result.Intent.Status)
}

func TestPaymentService_HandleReturn_MissingReference(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubGateway{}, Config{})

	_, err := svc.HandleReturn(context.Background(), ReturnRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.HandleReturn(context.Background(), ReturnRequest{IntentID: "nope"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPaymentService_Get_Ownership(t *testing.T) {
	svc, intents, _, _ := newTestService(t, &stubGateway{}, Config{})
	owner := uuid.New()
	intent := pendingIntent(t, "")
	intent.CustomerID = &owner
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)

	other := uuid.New()
	_, err := svc.Get(context.Background(), intent.ID, &other, false)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Get(context.Background(), intent.ID, nil, false)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	resp, err := svc.Get(context.Background(), intent.ID, &owner, false)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, resp.ID)

	_, err = svc.Get(context.Background(), intent.ID, &other, true)
	assert.NoError(t, err)
}

func TestPaymentService_Cancel(t *testing.T) {
	svc, intents, _, pub := newTestService(t, &stubGateway{}, Config{})
	intent := pendingIntent(t, "")
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)
	intents.On("Save", mock.Anything, intent).Return(nil)

	resp, err := svc.Cancel(context.Background(), intent.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", resp.Status)
	assert.Len(t, pub.events, 1)
}

func TestPaymentService_Cancel_PaidIntent(t *testing.T) {
	svc, intents, _, _ := newTestService(t, &stubGateway{}, Config{})
	intent := pendingIntent(t, "")
	require.NoError(t, intent.MarkPaid(time.Now()))
	intents.On("FindByID", mock.Anything, intent.ID).Return(intent, nil)

	_, err := svc.Cancel(context.Background(), intent.ID, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
