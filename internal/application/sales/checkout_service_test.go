package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appcart "github.com/stephanos-estetic/backend/internal/application/cart"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	svc      *CheckoutService
	products *MockProductRepository
	orders   *MockOrderRepository
	users    *MockUserRepository
	tx       *fakeTxScope
	carts    *fakeCarts
	payments *fakePayments
	pub      *recordingPublisher
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		products: new(MockProductRepository),
		orders:   new(MockOrderRepository),
		users:    new(MockUserRepository),
		carts:    &fakeCarts{},
		payments: &fakePayments{},
		pub:      &recordingPublisher{},
	}
	f.tx = &fakeTxScope{products: f.products, orders: f.orders}
	f.svc = NewCheckoutService(f.tx, f.carts, f.users, f.payments, cart.DefaultShippingPolicy(), zap.NewNop())
	f.svc.SetEventPublisher(f.pub)
	return f
}

func newStockedProduct(t *testing.T, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Producto "+sku, decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.SetStock(stock))
	p.ClearDomainEvents()
	return p
}

type checkoutMetrics struct {
	outcomes []string
}

func (m *checkoutMetrics) RecordCheckout(_ context.Context, outcome string, _ float64) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestCheckout_ExplicitItems(t *testing.T) {
	f := newCheckoutFixture()
	metrics := &checkoutMetrics{}
	f.svc.SetMetrics(metrics)

	crema := newStockedProduct(t, "CREMA-01", 12990, 5)
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(crema, nil)
	f.products.On("SaveWithLock", mock.Anything, crema).Return(nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).Return(nil)

	resp, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "crema-01", Qty: 1}, {SKU: "CREMA-01", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, crema.Stock)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, 2, resp.Order.Items[0].Qty)
	assert.True(t, resp.Order.Subtotal.Equal(decimal.NewFromInt(25980)))
	assert.True(t, resp.Order.Shipping.Equal(decimal.NewFromInt(3990)))
	assert.True(t, resp.Order.Total.Equal(decimal.NewFromInt(29970)))
	assert.Equal(t, "http://pay.test/session", resp.RedirectURL)
	assert.False(t, f.carts.cleared)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, sales.EventTypeOrderPlaced, f.pub.events[0].EventType())
	assert.Equal(t, []string{"placed"}, metrics.outcomes)
}

func TestCheckout_FromCartUsesProfile(t *testing.T) {
	f := newCheckoutFixture()
	userID := uuid.New()
	f.users.On("FindByID", mock.Anything, userID).Return(&identity.User{
		Username: "ana",
		Email:    "ana@example.com",
		FullName: "Ana Pérez",
	}, nil)

	serum := newStockedProduct(t, "SERUM-01", 60000, 2)
	c := cart.NewForOwner(userID)
	require.NoError(t, c.AddItem(cart.LineItem{ID: serum.ID, Name: serum.Name, Price: serum.Price}, 1))
	f.carts.cart = c

	f.products.On("FindByID", mock.Anything, serum.ID).Return(serum, nil)
	f.products.On("SaveWithLock", mock.Anything, serum).Return(nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).Return(nil)

	resp, err := f.svc.Checkout(context.Background(), appcart.Ref{UserID: &userID}, CheckoutRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Ana Pérez", resp.Order.CustomerName)
	assert.Equal(t, "ana@example.com", resp.Order.CustomerEmail)
	assert.True(t, resp.Order.Shipping.IsZero(), "free shipping above the threshold")
	assert.True(t, f.carts.cleared)
	require.Len(t, f.payments.orders, 1)
	assert.True(t, f.payments.orders[0].IsOwnedBy(userID))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	metrics := &checkoutMetrics{}
	f.svc.SetMetrics(metrics)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "EMPTY_CART", domainErr.Code)
	assert.Zero(t, f.tx.calls)
	assert.Equal(t, []string{"rejected"}, metrics.outcomes)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newCheckoutFixture()
	p := newStockedProduct(t, "CREMA-01", 12990, 1)
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(p, nil)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "CREMA-01", Qty: 2}},
		CustomerEmail: "ana@example.com",
	})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	f.products.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.payments.orders)
}

func TestCheckout_InactiveProduct(t *testing.T) {
	f := newCheckoutFixture()
	p := newStockedProduct(t, "CREMA-01", 12990, 5)
	require.NoError(t, p.Deactivate())
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(p, nil)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "CREMA-01", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PRODUCT_UNAVAILABLE", domainErr.Code)
}

func TestCheckout_UnknownSKU(t *testing.T) {
	f := newCheckoutFixture()
	f.products.On("FindBySKU", mock.Anything, "NOPE").Return(nil, shared.ErrNotFound)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "nope", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "UNKNOWN_PRODUCT", domainErr.Code)
}

func TestCheckout_GuestNeedsEmail(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items: []CheckoutItem{{SKU: "CREMA-01", Qty: 1}},
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_EMAIL", domainErr.Code)
}

func TestCheckout_RetriesOnLockConflict(t *testing.T) {
	f := newCheckoutFixture()
	p := newStockedProduct(t, "CREMA-01", 12990, 5)
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(p, nil)
	f.products.On("SaveWithLock", mock.Anything, p).Return(shared.ErrConcurrencyConflict).Once()
	f.products.On("SaveWithLock", mock.Anything, p).Return(nil).Once()
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).Return(nil)

	resp, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "CREMA-01", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.tx.calls)
	assert.Len(t, resp.Order.Items, 1)
}

func TestCheckout_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newCheckoutFixture()
	p := newStockedProduct(t, "CREMA-01", 12990, 50)
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(p, nil)
	f.products.On("SaveWithLock", mock.Anything, p).Return(shared.ErrConcurrencyConflict)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "CREMA-01", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, maxLockRetries, f.tx.calls)
}

func TestCheckout_PaymentFailureKeepsOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.payments.err = shared.NewDomainError("PAYMENT_UNAVAILABLE", "down")
	p := newStockedProduct(t, "CREMA-01", 12990, 5)
	f.products.On("FindBySKU", mock.Anything, "CREMA-01").Return(p, nil)
	f.products.On("SaveWithLock", mock.Anything, p).Return(nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).Return(nil)

	_, err := f.svc.Checkout(context.Background(), appcart.Ref{}, CheckoutRequest{
		Items:         []CheckoutItem{{SKU: "CREMA-01", Qty: 1}},
		CustomerEmail: "ana@example.com",
	})
	require.Error(t, err)
	f.orders.AssertNumberOfCalls(t, "Save", 1)
	require.Len(t, f.payments.orders, 1)
	assert.Equal(t, sales.OrderStatusPending, f.payments.orders[0].Status)
}

func TestOrderNumber(t *testing.T) {
	o := &sales.Order{}
	o.ID = uuid.MustParse("abcdef12-3456-7890-abcd-ef1234567890")
	o.CreatedAt = time.Now()
	assert.Equal(t, "SE-ABCDEF12", OrderNumber(o))
}
