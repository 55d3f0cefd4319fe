package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := Open(sqlite.Open("file::memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(database.DB))
	return database.DB
}
