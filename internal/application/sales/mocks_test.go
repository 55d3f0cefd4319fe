package sales

import (
	"context"

	"github.com/google/uuid"
	appcart "github.com/stephanos-estetic/backend/internal/application/cart"
	apppayment "github.com/stephanos-estetic/backend/internal/application/payment"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKUs(ctx context.Context, skus []string) ([]catalog.Product, error) {
	args := m.Called(ctx, skus)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
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

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// fakeTxScope runs the callback against the mocks without a database.
// A failed callback is reported like a rolled back transaction.
type fakeTxScope struct {
	products *MockProductRepository
	orders   *MockOrderRepository
	calls    int
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	return fn(s)
}

func (s *fakeTxScope) Products() catalog.ProductRepository { return s.products }

func (s *fakeTxScope) Orders() sales.OrderRepository { return s.orders }

type fakeCarts struct {
	cart    *cart.Cart
	cleared bool
}

func (f *fakeCarts) Load(_ context.Context, _ appcart.Ref) (*cart.Cart, error) {
	if f.cart == nil {
		return cart.New(), nil
	}
	return f.cart, nil
}

func (f *fakeCarts) Clear(_ context.Context, _ appcart.Ref) (*appcart.CartResponse, error) {
	f.cleared = true
	return &appcart.CartResponse{}, nil
}

type fakePayments struct {
	err    error
	orders []*sales.Order
}

func (f *fakePayments) CreateForOrder(_ context.Context, order *sales.Order) (*apppayment.IntentResponse, error) {
	f.orders = append(f.orders, order)
	if f.err != nil {
		return nil, f.err
	}
	return &apppayment.IntentResponse{
		ID:          uuid.New(),
		Amount:      order.TotalAmount.IntPart(),
		Status:      "REQUIRES_ACTION",
		RedirectURL: "http://pay.test/session",
	}, nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
