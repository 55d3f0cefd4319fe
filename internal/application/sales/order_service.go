package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Document is a rendered file ready for download
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ReceiptRenderer renders an order receipt
type ReceiptRenderer interface {
	Render(ctx context.Context, order *sales.Order) (*Document, error)
}

// OrderService serves the Orders page
type OrderService struct {
	orders         sales.OrderRepository
	txScope        TransactionScope
	receipts       ReceiptRenderer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(orders sales.OrderRepository, txScope TransactionScope, receipts ReceiptRenderer, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		txScope:  txScope,
		receipts: receipts,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ListMine returns the caller's orders, newest first
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]OrderResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize

	orders, err := s.orders.FindByCustomer(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountByCustomer(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// Get returns one order. Other customers' orders are reported as not found.
func (s *OrderService) Get(ctx context.Context, id, userID uuid.UUID, isStaff bool) (*OrderResponse, error) {
	order, err := s.load(ctx, id, userID, isStaff)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Receipt renders the order receipt
func (s *OrderService) Receipt(ctx context.Context, id, userID uuid.UUID, isStaff bool) (*Document, error) {
	order, err := s.load(ctx, id, userID, isStaff)
	if err != nil {
		return nil, err
	}
	doc, err := s.receipts.Render(ctx, order)
	if err != nil {
		s.logger.Error("failed to render receipt",
			zap.String("order_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return doc, nil
}

// Cancel cancels a pending order and puts its stock back
func (s *OrderService) Cancel(ctx context.Context, id, userID uuid.UUID, isStaff bool) (*OrderResponse, error) {
	var order *sales.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !isStaff && !order.IsOwnedBy(userID) {
			return shared.ErrNotFound
		}
		if order.Status == sales.OrderStatusCancelled {
			return nil
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, item := range order.Items {
			product, err := repos.Products().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.IncreaseStock(item.Qty); err != nil {
				return err
			}
			if err := repos.Products().SaveWithLock(ctx, product); err != nil {
				return err
			}
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// MarkPaid records a successful payment for an order
func (s *OrderService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == sales.OrderStatusPaid {
		return nil
	}
	if err := order.MarkPaid(s.now()); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	s.logger.Info("order paid", zap.String("order_id", id.String()))
	s.publish(ctx, order)
	return nil
}

func (s *OrderService) load(ctx context.Context, id, userID uuid.UUID, isStaff bool) (*sales.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isStaff && !order.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, order *sales.Order) {
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
