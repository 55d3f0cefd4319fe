package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormShopStatsProvider(t *testing.T) {
	db, mock := newMockGorm(t)
	p := NewGormShopStatsProvider(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE status = \$1`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := p.CountPendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	now := time.Now()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings" JOIN availability_slots`).
		WithArgs("pending", "paid", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	n, err = p.CountUpcomingBookings(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE active = \$1 AND stock <= \$2`).
		WithArgs(true, 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	n, err = p.CountLowStockProducts(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, mock.ExpectationsWereMet())
}
