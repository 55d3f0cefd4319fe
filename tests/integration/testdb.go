// Package integration runs the persistence layer against a real PostgreSQL
// started with testcontainers. The schema comes from the embedded migrations.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stephanos-estetic/backend/internal/infrastructure/migration"
	"github.com/stephanos-estetic/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestDB is a migrated PostgreSQL database in its own container
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a container, applies every migration and registers cleanup.
// It skips the test under -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stephanos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	database, err := persistence.Open(gormpostgres.Open(dsn), nil)
	require.NoError(t, err, "Failed to connect to database")
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)

	tdb := &TestDB{DB: database.DB, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(tdb.Close)

	tdb.Migrate().Up()
	return tdb
}

// Migrate returns a migrator on its own connection pool, since closing a
// migrator closes the pool it was given
func (tdb *TestDB) Migrate() *migrationRunner {
	tdb.t.Helper()
	db, err := sql.Open("postgres", tdb.DSN)
	require.NoError(tdb.t, err)
	m, err := migration.New(db, zap.NewNop())
	require.NoError(tdb.t, err, "Failed to create migrator")
	tdb.t.Cleanup(func() { _ = m.Close() })
	return &migrationRunner{t: tdb.t, m: m}
}

// Close closes the connection and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := tdb.Container.Terminate(ctx); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// Tables lists the public tables, migration bookkeeping excluded
func (tdb *TestDB) Tables() []string {
	tdb.t.Helper()
	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
		ORDER BY tablename
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")
	return tables
}

type migrationRunner struct {
	t *testing.T
	m *migration.Migrator
}

func (r *migrationRunner) Up() {
	r.t.Helper()
	require.NoError(r.t, r.m.Up(), "Failed to run migrations")
}

func (r *migrationRunner) Down() {
	r.t.Helper()
	require.NoError(r.t, r.m.Down(), "Failed to roll back migrations")
}
