package sales

import (
	"context"

	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
)

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Orders() sales.OrderRepository
}

// TransactionScope runs fn atomically. Returning an error from fn rolls
// every write back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
