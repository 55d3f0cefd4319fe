package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeStats struct {
	pending, upcoming, lowStock int64
	err                         error
	threshold                   int
}

func (f *fakeStats) CountPendingOrders(context.Context) (int64, error) {
	return f.pending, f.err
}

func (f *fakeStats) CountUpcomingBookings(context.Context, time.Time) (int64, error) {
	return f.upcoming, nil
}

func (f *fakeStats) CountLowStockProducts(_ context.Context, threshold int) (int64, error) {
	f.threshold = threshold
	return f.lowStock, nil
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{})
	assert.Nil(t, bm)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBusinessMetrics_Counters(t *testing.T) {
	reader, provider := newTestMeter(t)
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordBooking(ctx, "booked")
	bm.RecordBooking(ctx, "slot_taken")
	bm.RecordCheckout(ctx, "placed", 25990)
	bm.RecordCheckout(ctx, "out_of_stock", 0)
	bm.RecordPayment(ctx, "webpay", "paid")

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, rm, "se_booking_total"))
	assert.Equal(t, int64(2), sumValue(t, rm, "se_checkout_total"))
	assert.Equal(t, int64(1), sumValue(t, rm, "se_payment_total"))

	m, ok := findMetric(rm, "se_checkout_amount")
	require.True(t, ok)
	hist := m.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 25990, hist.DataPoints[0].Sum, 0.001)

	payments, _ := findMetric(rm, "se_payment_total")
	dp := payments.Data.(metricdata.Sum[int64]).DataPoints[0]
	name, _ := dp.Attributes.Value(AttrProvider)
	assert.Equal(t, attribute.StringValue("webpay"), name)
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	reader, provider := newTestMeter(t)
	stats := &fakeStats{pending: 4, upcoming: 7, lowStock: 2}
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:             provider.Meter("test"),
		Stats:             stats,
		CollectInterval:   time.Hour,
		LowStockThreshold: 5,
	})
	require.NoError(t, err)

	bm.collect(context.Background())
	rm := collect(t, reader)
	assert.Equal(t, int64(4), gaugeValue(t, rm, "se_orders_pending"))
	assert.Equal(t, int64(7), gaugeValue(t, rm, "se_bookings_upcoming"))
	assert.Equal(t, int64(2), gaugeValue(t, rm, "se_products_low_stock"))
	assert.Equal(t, 5, stats.threshold)

	bm.StartPeriodicCollection(context.Background())
	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_CollectSkipsFailedGauge(t *testing.T) {
	reader, provider := newTestMeter(t)
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter: provider.Meter("test"),
		Stats: &fakeStats{upcoming: 1, err: errors.New("db down")},
	})
	require.NoError(t, err)

	bm.collect(context.Background())
	rm := collect(t, reader)
	_, found := findMetric(rm, "se_orders_pending")
	assert.False(t, found)
	assert.Equal(t, int64(1), gaugeValue(t, rm, "se_bookings_upcoming"))
}
