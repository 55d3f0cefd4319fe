package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/stephanos-estetic/backend/internal/application/cart"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cartTTL = 10 * time.Minute

func lineItem(name string, price int64) cart.LineItem {
	return cart.LineItem{ID: uuid.New(), Name: name, Price: decimal.NewFromInt(price), Category: "skincare"}
}

func TestRedisCartStore(t *testing.T) {
	client := NewTestRedis(t)
	store := cache.NewRedisCartStore(client, cartTTL)
	ctx := context.Background()
	owner := uuid.New()
	serum, oil := lineItem("Serum", 12990), lineItem("Oil", 8000)

	c := cart.NewForOwner(owner)
	require.NoError(t, c.AddItem(serum, 2))
	require.NoError(t, c.AddItem(oil, 1))
	require.NoError(t, store.Save(ctx, c))
	assert.Equal(t, 1, c.Version)

	t.Run("unknown cart", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = store.GetByOwner(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("round trip keeps lines and order", func(t *testing.T) {
		loaded, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 2)
		assert.Equal(t, serum.ID, loaded.Items[0].ID)
		assert.Equal(t, 2, loaded.Items[0].Qty)
		assert.True(t, loaded.Subtotal().Equal(decimal.NewFromInt(33980)))
		assert.Equal(t, 1, loaded.Version)
	})

	t.Run("owner index", func(t *testing.T) {
		loaded, err := store.GetByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, c.ID, loaded.ID)
	})

	t.Run("save refreshes the expiry", func(t *testing.T) {
		cartKey := cache.KeyPrefix + "cart:" + c.ID.String()
		ownerKey := cache.KeyPrefix + "cart:owner:" + owner.String()
		require.NoError(t, client.Expire(ctx, cartKey, 5*time.Second).Err())
		require.NoError(t, client.Expire(ctx, ownerKey, 5*time.Second).Err())

		require.NoError(t, c.UpdateQty(oil.ID, 3))
		require.NoError(t, store.Save(ctx, c))

		for _, key := range []string{cartKey, ownerKey} {
			ttl, err := client.TTL(ctx, key).Result()
			require.NoError(t, err)
			assert.Greater(t, ttl, time.Minute, key)
			assert.LessOrEqual(t, ttl, cartTTL, key)
		}
	})

	t.Run("stale save is rejected", func(t *testing.T) {
		first, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		second, err := store.Get(ctx, c.ID)
		require.NoError(t, err)

		require.NoError(t, first.RemoveItem(oil.ID))
		require.NoError(t, store.Save(ctx, first))

		require.NoError(t, second.AddItem(lineItem("Tonico", 9990), 1))
		assert.ErrorIs(t, store.Save(ctx, second), shared.ErrConcurrencyConflict)

		loaded, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Items, 1, "the winning write is kept")
		c = loaded
	})

	t.Run("second new cart for an owner is rejected", func(t *testing.T) {
		dup := cart.NewForOwner(owner)
		assert.ErrorIs(t, store.Save(ctx, dup), shared.ErrConcurrencyConflict)
	})

	t.Run("delete drops the cart and its owner index", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, c.ID))
		_, err := store.Get(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = store.GetByOwner(ctx, owner)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// productSet serves a fixed catalog to the cart service
type productSet struct {
	catalog.ProductRepository
	products map[uuid.UUID]*catalog.Product
}

func (r *productSet) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func TestRedisCartStore_ConcurrentAdds(t *testing.T) {
	client := NewTestRedis(t)
	store := cache.NewRedisCartStore(client, cartTTL)
	ctx := context.Background()

	cream, err := catalog.NewProduct("CREAM-1", "Crema", decimal.NewFromInt(12000))
	require.NoError(t, err)
	svc := cartapp.NewCartService(store, &productSet{products: map[uuid.UUID]*catalog.Product{cream.ID: cream}},
		cart.DefaultShippingPolicy(), zap.NewNop())

	first, err := svc.AddItem(ctx, cartapp.Ref{}, cartapp.AddItemRequest{ProductID: cream.ID, Qty: 1})
	require.NoError(t, err)
	ref := cartapp.Ref{CartID: &first.ID}

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, ref, cartapp.AddItemRequest{ProductID: cream.ID, Qty: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	want := 1
	for err := range errs {
		if err == nil {
			want++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	}

	loaded, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, want, loaded.Items[0].Qty, "no add is lost")
}
