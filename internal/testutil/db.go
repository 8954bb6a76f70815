package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"order-reconciliation/internal/client"
	"order-reconciliation/internal/config"
)

// NewDB returns a migrated sqlite database that lives for the duration of the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "orders.db") + "?_busy_timeout=5000"
	db, err := client.InitDatabase(config.Database{Driver: "sqlite", URL: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
