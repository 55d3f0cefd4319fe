package cart

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name string, price int64) LineItem {
	return LineItem{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.NewFromInt(price),
		ImageURL: "https://cdn.example.com/" + name + ".jpg",
		Category: "skincare",
	}
}

func TestCart_AddItem(t *testing.T) {
	t.Run("appends new lines in order", func(t *testing.T) {
		c := New()
		a, b := item("serum", 18990), item("tonico", 9990)

		require.NoError(t, c.AddItem(a, 1))
		require.NoError(t, c.AddItem(b, 2))

		require.Len(t, c.Items, 2)
		assert.Equal(t, a.ID, c.Items[0].ID)
		assert.Equal(t, b.ID, c.Items[1].ID)
		assert.Equal(t, 2, c.Items[1].Qty)
	})

	t.Run("merges quantity for an existing id", func(t *testing.T) {
		c := New()
		a := item("serum", 18990)

		require.NoError(t, c.AddItem(a, 1))
		require.NoError(t, c.AddItem(a, 3))

		require.Len(t, c.Items, 1)
		assert.Equal(t, 4, c.Items[0].Qty)
	})

	t.Run("quantity below one is treated as one", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(item("serum", 100), 0))
		require.NoError(t, c.AddItem(item("crema", 100), -5))

		for _, it := range c.Items {
			assert.Equal(t, 1, it.Qty)
		}
	})

	t.Run("rejects nil id", func(t *testing.T) {
		c := New()
		err := c.AddItem(LineItem{Name: "x", Price: decimal.NewFromInt(1)}, 1)
		assert.Error(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("rejects negative price", func(t *testing.T) {
		c := New()
		err := c.AddItem(item("x", -1), 1)
		assert.Error(t, err)
	})
}

func TestCart_UpdateQty(t *testing.T) {
	c := New()
	a := item("serum", 18990)
	require.NoError(t, c.AddItem(a, 3))

	t.Run("sets quantity", func(t *testing.T) {
		require.NoError(t, c.UpdateQty(a.ID, 5))
		got, ok := c.Item(a.ID)
		require.True(t, ok)
		assert.Equal(t, 5, got.Qty)
	})

	t.Run("quantity cannot go below one", func(t *testing.T) {
		for _, q := range []int{0, -1, -100} {
			require.NoError(t, c.UpdateQty(a.ID, q))
			got, _ := c.Item(a.ID)
			assert.Equal(t, 1, got.Qty, "qty %d", q)
		}
		assert.Len(t, c.Items, 1, "clamping never removes the line")
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorContains(t, c.UpdateQty(uuid.New(), 2), "not in the cart")
	})
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	a, b, d := item("a", 1), item("b", 2), item("d", 3)
	require.NoError(t, c.AddItem(a, 1))
	require.NoError(t, c.AddItem(b, 1))
	require.NoError(t, c.AddItem(d, 1))

	require.NoError(t, c.RemoveItem(b.ID))
	require.Len(t, c.Items, 2)
	assert.Equal(t, a.ID, c.Items[0].ID)
	assert.Equal(t, d.ID, c.Items[1].ID)

	assert.Error(t, c.RemoveItem(b.ID))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}

func TestCart_Totals(t *testing.T) {
	policy := DefaultShippingPolicy()

	t.Run("empty cart ships free", func(t *testing.T) {
		totals := New().Totals(policy)
		assert.True(t, totals.Subtotal.IsZero())
		assert.True(t, totals.Shipping.IsZero())
		assert.True(t, totals.Total.IsZero())
	})

	t.Run("subtotal sums price times qty", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(item("serum", 18990), 2))
		require.NoError(t, c.AddItem(item("tonico", 9990), 1))

		totals := c.Totals(policy)
		assert.Equal(t, "47970", totals.Subtotal.String())
		assert.Equal(t, "3990", totals.Shipping.String())
		assert.Equal(t, "51960", totals.Total.String())
		assert.Equal(t, 3, c.ItemCount())
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(item("pack", 50000), 1))
		assert.Equal(t, "3990", c.Totals(policy).Shipping.String())

		require.NoError(t, c.AddItem(item("extra", 1), 1))
		totals := c.Totals(policy)
		assert.True(t, totals.Shipping.IsZero())
		assert.Equal(t, "50001", totals.Total.String())
	})

	t.Run("decimal prices", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(LineItem{ID: uuid.New(), Price: decimal.RequireFromString("0.10")}, 3))
		assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("0.30")))
	})
}

func TestCart_Merge(t *testing.T) {
	shared := item("serum", 18990)

	user := New()
	require.NoError(t, user.AddItem(shared, 1))

	anon := New()
	require.NoError(t, anon.AddItem(shared, 2))
	require.NoError(t, anon.AddItem(item("tonico", 9990), 1))

	require.NoError(t, user.Merge(anon))
	require.Len(t, user.Items, 2)
	assert.Equal(t, 3, user.Items[0].Qty)
	assert.NoError(t, user.Validate())

	assert.NoError(t, user.Merge(nil))
}

func TestCart_Validate(t *testing.T) {
	a := item("a", 1)
	a.Qty = 1

	dup := &Cart{Items: []LineItem{a, a}}
	assert.Error(t, dup.Validate())

	zero := a
	zero.Qty = 0
	bad := &Cart{Items: []LineItem{zero}}
	assert.Error(t, bad.Validate())

	huge := a
	huge.Qty = MaxQty + 1
	assert.Error(t, (&Cart{Items: []LineItem{huge}}).Validate())

	ok := &Cart{Items: []LineItem{a}}
	assert.NoError(t, ok.Validate())
}

func TestCart_QtyCap(t *testing.T) {
	serum := item("serum", 18990)

	t.Run("repeated adds stop at the cap", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(serum, math.MaxInt))
		require.NoError(t, c.AddItem(serum, 1))
		require.NoError(t, c.AddItem(serum, math.MaxInt))

		assert.Equal(t, MaxQty, c.Items[0].Qty)
		assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(18990*MaxQty)))
		assert.NoError(t, c.Validate())
	})

	t.Run("update clamps", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(serum, 1))
		require.NoError(t, c.UpdateQty(serum.ID, math.MaxInt))
		assert.Equal(t, MaxQty, c.Items[0].Qty)
	})

	t.Run("merge clamps", func(t *testing.T) {
		user := New()
		require.NoError(t, user.AddItem(serum, 900))
		anon := New()
		require.NoError(t, anon.AddItem(serum, 900))

		require.NoError(t, user.Merge(anon))
		assert.Equal(t, MaxQty, user.Items[0].Qty)
	})
}
