package persistence

import (
	"context"

	appsales "github.com/stephanos-estetic/backend/internal/application/sales"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// If fn returns an error the transaction is rolled back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Products returns the product repository scoped to the transaction
func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Orders returns the order repository scoped to the transaction
func (r *gormTransactionalRepositories) Orders() sales.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

var (
	_ appsales.TransactionScope          = (*GormTransactionScope)(nil)
	_ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
