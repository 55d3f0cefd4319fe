// Package sales places shop orders and serves the customer's order history.
package sales

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	appcart "github.com/stephanos-estetic/backend/internal/application/cart"
	apppayment "github.com/stephanos-estetic/backend/internal/application/payment"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxLockRetries bounds how often a checkout is retried after losing an
// optimistic lock on a product row
const maxLockRetries = 3

// CartSource is the part of the cart service checkout needs
type CartSource interface {
	Load(ctx context.Context, ref appcart.Ref) (*cart.Cart, error)
	Clear(ctx context.Context, ref appcart.Ref) (*appcart.CartResponse, error)
}

// PaymentStarter opens the payment for a placed order
type PaymentStarter interface {
	CreateForOrder(ctx context.Context, order *sales.Order) (*apppayment.IntentResponse, error)
}

// Metrics records checkout outcomes
type Metrics interface {
	RecordCheckout(ctx context.Context, outcome string, total float64)
}

// CheckoutService turns a cart or an explicit item list into an order
type CheckoutService struct {
	txScope        TransactionScope
	carts          CartSource
	users          identity.UserRepository
	payments       PaymentStarter
	policy         cart.ShippingPolicy
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	txScope TransactionScope,
	carts CartSource,
	users identity.UserRepository,
	payments PaymentStarter,
	policy cart.ShippingPolicy,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		txScope:  txScope,
		carts:    carts,
		users:    users,
		payments: payments,
		policy:   policy,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the outcome recorder
func (s *CheckoutService) SetMetrics(m Metrics) {
	s.metrics = m
}

type checkoutLine struct {
	productID uuid.UUID
	sku       string
	qty       int
}

// Checkout validates stock, takes it out and stores the order in a single
// transaction, then clears the cart and opens the payment.
func (s *CheckoutService) Checkout(ctx context.Context, ref appcart.Ref, req CheckoutRequest) (*CheckoutResponse, error) {
	resp, err := s.checkout(ctx, ref, req)
	if s.metrics != nil {
		outcome, total := "placed", 0.0
		if err != nil {
			outcome = checkoutOutcome(err)
		} else {
			total = resp.Order.Total.InexactFloat64()
		}
		s.metrics.RecordCheckout(ctx, outcome, total)
	}
	return resp, err
}

func (s *CheckoutService) checkout(ctx context.Context, ref appcart.Ref, req CheckoutRequest) (*CheckoutResponse, error) {
	fromCart := len(req.Items) == 0
	lines, err := s.collectLines(ctx, ref, req)
	if err != nil {
		return nil, err
	}

	customer, err := s.customer(ctx, ref.UserID, req)
	if err != nil {
		return nil, err
	}

	var order *sales.Order
	for attempt := 1; ; attempt++ {
		order, err = s.place(ctx, customer, lines)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= maxLockRetries {
			return nil, err
		}
		s.logger.Debug("checkout lost a stock lock, retrying", zap.Int("attempt", attempt))
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", order.ItemCount()),
		zap.String("total", order.TotalAmount.String()),
	)

	if fromCart {
		if _, err := s.carts.Clear(ctx, ref); err != nil {
			s.logger.Warn("failed to clear cart after checkout",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	s.publish(ctx, order)

	intent, err := s.payments.CreateForOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	return &CheckoutResponse{
		Order:       ToOrderResponse(order),
		Intent:      intent,
		RedirectURL: intent.RedirectURL,
	}, nil
}

// collectLines merges duplicate products so stock is checked once per row
func (s *CheckoutService) collectLines(ctx context.Context, ref appcart.Ref, req CheckoutRequest) ([]checkoutLine, error) {
	var lines []checkoutLine
	if len(req.Items) > 0 {
		index := make(map[string]int, len(req.Items))
		for _, it := range req.Items {
			sku := strings.ToUpper(strings.TrimSpace(it.SKU))
			if sku == "" {
				return nil, shared.NewDomainError("INVALID_INPUT", "SKU is required")
			}
			qty := it.Qty
			if qty < 1 {
				qty = 1
			}
			if i, ok := index[sku]; ok {
				lines[i].qty += qty
				continue
			}
			index[sku] = len(lines)
			lines = append(lines, checkoutLine{sku: sku, qty: qty})
		}
		return lines, nil
	}

	c, err := s.carts.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.NewDomainError("EMPTY_CART", "Your cart is empty")
	}
	for _, it := range c.Items {
		lines = append(lines, checkoutLine{productID: it.ID, qty: it.Qty})
	}
	return lines, nil
}

// customer fills name and email from the account when the request leaves
// them out
func (s *CheckoutService) customer(ctx context.Context, userID *uuid.UUID, req CheckoutRequest) (sales.Customer, error) {
	c := sales.Customer{
		UserID: userID,
		Name:   strings.TrimSpace(req.CustomerName),
		Email:  strings.TrimSpace(req.CustomerEmail),
	}
	if userID == nil || (c.Name != "" && c.Email != "") {
		return c, nil
	}
	user, err := s.users.FindByID(ctx, *userID)
	if err != nil {
		return c, err
	}
	if c.Name == "" {
		c.Name = user.DisplayName()
	}
	if c.Email == "" {
		c.Email = user.Email
	}
	return c, nil
}

func (s *CheckoutService) place(ctx context.Context, customer sales.Customer, lines []checkoutLine) (*sales.Order, error) {
	order, err := sales.NewOrder(customer)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		products := repos.Products()
		for _, line := range lines {
			product, err := findProduct(ctx, products, line)
			if err != nil {
				return err
			}
			if !product.Active {
				return shared.NewDomainError("PRODUCT_UNAVAILABLE", product.Name+" is no longer available")
			}
			if err := product.DecreaseStock(line.qty); err != nil {
				return err
			}
			if err := products.SaveWithLock(ctx, product); err != nil {
				return err
			}
			if err := order.AddItem(product.ID, product.SKU, product.Name, line.qty, product.Price); err != nil {
				return err
			}
		}
		if err := order.SetShipping(s.policy.FeeFor(order.SubtotalAmount)); err != nil {
			return err
		}
		if err := order.Place(); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func findProduct(ctx context.Context, products catalog.ProductRepository, line checkoutLine) (*catalog.Product, error) {
	var (
		product *catalog.Product
		err     error
	)
	if line.sku != "" {
		product, err = products.FindBySKU(ctx, line.sku)
	} else {
		product, err = products.FindByID(ctx, line.productID)
	}
	if errors.Is(err, shared.ErrNotFound) {
		ref := line.sku
		if ref == "" {
			ref = line.productID.String()
		}
		return nil, shared.NewDomainError("UNKNOWN_PRODUCT", "Unknown product: "+ref)
	}
	return product, err
}

func checkoutOutcome(err error) string {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return "error"
	}
	switch domainErr.Code {
	case "INSUFFICIENT_STOCK":
		return "out_of_stock"
	case "CONCURRENCY_CONFLICT":
		return "conflict"
	case "PAYMENT_UNAVAILABLE":
		return "payment_unavailable"
	default:
		return "rejected"
	}
}

func (s *CheckoutService) publish(ctx context.Context, order *sales.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}
