package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const metricsStartKey dbContextKey = "db_metrics_start_time"

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics records query counts, latency and connection pool state.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database instruments
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = def.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = def.PoolStatsInterval
	}

	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum open connections", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one finished statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerTimedCallbacks(db, "db_metrics", metricsStartKey, func(db *gorm.DB, op string, elapsed time.Duration) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		m.RecordQuery(ctx, op, db.Statement.Table, elapsed)
	})
}

// StartPoolStatsCollection samples sql.DB pool stats until Stop or ctx ends
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	m.sqlDB = sqlDB
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool stats collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RegisterDBMetrics installs query metrics on db and starts pool sampling.
// It returns nil when the meter provider is not exporting.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m.StartPoolStatsCollection(ctx, sqlDB)

	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", m.config.PoolStatsInterval))
	return m, nil
}
