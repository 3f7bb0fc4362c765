// Package testdb opens migrated in-memory databases for tests.
package testdb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db"
)

// Open returns a fresh, migrated in-memory sqlite database that is closed with the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DB{GormEngine: config.EngineSQLite, Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}
