package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo *GormProductRepository, sku, name, category string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name, decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.Update(name, "", category, ""))
	require.NoError(t, p.SetStock(stock))
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestGormProductRepository_FindBySKU(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()
	seeded := seedProduct(t, repo, "SERUM-01", "Serum", "skin", 12990, 5)

	found, err := repo.FindBySKU(ctx, " serum-01 ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.True(t, decimal.NewFromInt(12990).Equal(found.Price))

	_, err = repo.FindBySKU(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.ExistsBySKU(ctx, "serum-01")
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := catalog.NewProduct("SERUM-01", "Copy", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()
	seedProduct(t, repo, "A-1", "Aloe gel", "skin", 5000, 1)
	seedProduct(t, repo, "B-1", "Body oil", "body", 9000, 1)
	hidden := seedProduct(t, repo, "C-1", "Cream", "skin", 7000, 1)
	require.NoError(t, hidden.Deactivate())
	require.NoError(t, repo.Save(ctx, hidden))

	t.Run("active and category", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["active"] = true
		filter.Filters["category"] = "skin"
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "A-1", products[0].SKU)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("search matches name or sku", func(t *testing.T) {
		filter := shared.Filter{Search: "OIL"}
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "B-1", products[0].SKU)
	})

	t.Run("sorted and paginated", func(t *testing.T) {
		filter := shared.Filter{Page: 2, PageSize: 2, OrderBy: "price", OrderDir: "desc"}
		products, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "A-1", products[0].SKU)
	})

	t.Run("categories of active products", func(t *testing.T) {
		categories, err := repo.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"body", "skin"}, categories)
	})
}

func TestGormProductRepository_SaveWithLock(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()
	p := seedProduct(t, repo, "LOCK-1", "Lock", "", 1000, 3)

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.DecreaseStock(2))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.DecreaseStock(2))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
}
