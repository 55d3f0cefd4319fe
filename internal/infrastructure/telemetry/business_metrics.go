package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics component is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

const defaultCollectInterval = 5 * time.Minute

// ShopStatsProvider reports the point-in-time shop state sampled by the
// periodic collector
type ShopStatsProvider interface {
	CountPendingOrders(ctx context.Context) (int64, error)
	CountUpcomingBookings(ctx context.Context, now time.Time) (int64, error)
	CountLowStockProducts(ctx context.Context, threshold int) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration
	LowStockThreshold int
	Stats             ShopStatsProvider
}

// BusinessMetrics counts bookings, checkouts and payments and samples shop
// gauges on an interval.
type BusinessMetrics struct {
	logger *zap.Logger

	bookingTotal   *Counter
	checkoutTotal  *Counter
	checkoutAmount *Histogram
	paymentTotal   *Counter

	pendingOrders    *Gauge
	upcomingBookings *Gauge
	lowStockProducts *Gauge

	stats             ShopStatsProvider
	interval          time.Duration
	lowStockThreshold int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBusinessMetrics creates the business instruments
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = 3
	}

	bm := &BusinessMetrics{
		logger:            logger,
		stats:             cfg.Stats,
		interval:          interval,
		lowStockThreshold: threshold,
		stopCh:            make(chan struct{}),
	}

	var err error
	if bm.bookingTotal, err = NewCounter(cfg.Meter, "se_booking_total",
		"Booking attempts by outcome", "{bookings}"); err != nil {
		return nil, err
	}
	if bm.checkoutTotal, err = NewCounter(cfg.Meter, "se_checkout_total",
		"Checkout attempts by outcome", "{checkouts}"); err != nil {
		return nil, err
	}
	if bm.checkoutAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "se_checkout_amount",
		Description: "Order totals of placed checkouts in CLP",
		Unit:        "{CLP}",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.paymentTotal, err = NewCounter(cfg.Meter, "se_payment_total",
		"Payment results by provider and status", "{payments}"); err != nil {
		return nil, err
	}
	if bm.pendingOrders, err = NewGauge(cfg.Meter, "se_orders_pending",
		"Orders waiting for payment", "{orders}"); err != nil {
		return nil, err
	}
	if bm.upcomingBookings, err = NewGauge(cfg.Meter, "se_bookings_upcoming",
		"Active bookings whose slot has not started", "{bookings}"); err != nil {
		return nil, err
	}
	if bm.lowStockProducts, err = NewGauge(cfg.Meter, "se_products_low_stock",
		"Active products at or below the low stock threshold", "{products}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordBooking counts a booking attempt
func (bm *BusinessMetrics) RecordBooking(ctx context.Context, outcome string) {
	bm.bookingTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordCheckout counts a checkout attempt. Totals are recorded for placed
// orders only.
func (bm *BusinessMetrics) RecordCheckout(ctx context.Context, outcome string, total float64) {
	bm.checkoutTotal.Inc(ctx, AttrOutcome.String(outcome))
	if outcome == "placed" && total > 0 {
		bm.checkoutAmount.Record(ctx, total)
	}
}

// RecordPayment counts a payment result
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, provider, status string) {
	bm.paymentTotal.Inc(ctx, AttrProvider.String(provider), AttrPaymentStatus.String(status))
}

// StartPeriodicCollection samples the shop gauges until Stop or ctx ends.
// It is a no-op without a stats provider.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context) {
	if bm.stats == nil {
		return
	}
	bm.wg.Add(1)
	go func() {
		defer bm.wg.Done()
		ticker := time.NewTicker(bm.interval)
		defer ticker.Stop()

		bm.collect(ctx)
		for {
			select {
			case <-ticker.C:
				bm.collect(ctx)
			case <-bm.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	bm.logger.Info("Started business metrics collection", zap.Duration("interval", bm.interval))
}

func (bm *BusinessMetrics) collect(ctx context.Context) {
	if n, err := bm.stats.CountPendingOrders(ctx); err != nil {
		bm.logger.Warn("Failed to count pending orders", zap.Error(err))
	} else {
		bm.pendingOrders.Record(ctx, n)
	}
	if n, err := bm.stats.CountUpcomingBookings(ctx, time.Now()); err != nil {
		bm.logger.Warn("Failed to count upcoming bookings", zap.Error(err))
	} else {
		bm.upcomingBookings.Record(ctx, n)
	}
	if n, err := bm.stats.CountLowStockProducts(ctx, bm.lowStockThreshold); err != nil {
		bm.logger.Warn("Failed to count low stock products", zap.Error(err))
	} else {
		bm.lowStockProducts.Record(ctx, n)
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopCh)
		bm.wg.Wait()
	})
}
