// Package databasetest opens migrated in-memory SQLite databases for tests
package databasetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/logging"
)

// DSN returns a private in-memory SQLite DSN
func DSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
}

// NewSQLite opens a private in-memory database with every migration applied
func NewSQLite(t *testing.T) database.DB {
	t.Helper()

	logger := logging.Nop()
	db, err := database.Open(context.Background(), database.Config{Driver: database.DriverSQLite, DSN: DSN()}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrationService(logger, &database.MigrationConfig{}).Migrate(db))
	return db
}
