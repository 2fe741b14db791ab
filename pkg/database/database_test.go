package database_test

import (
	"context"
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/database/databasetest"
	"github.com/Ramsey-B/clover/pkg/logging"
)

func countAgents(t *testing.T, ctx context.Context, q database.Queryer) int {
	t.Helper()
	var count int
	require.NoError(t, q.GetContext(ctx, &count, "SELECT COUNT(*) FROM agents"))
	return count
}

func insertAgent(t *testing.T, ctx context.Context, q database.Queryer, id string) {
	t.Helper()
	_, err := q.ExecContext(ctx, `INSERT INTO agents (id, last_name, first_name, created_at, updated_at) VALUES (?, 'Mukendi', 'Jean', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, id)
	require.NoError(t, err)
}

func TestFlavorFor(t *testing.T) {
	flavor, err := database.FlavorFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, sqlbuilder.SQLite, flavor)

	flavor, err = database.FlavorFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, sqlbuilder.PostgreSQL, flavor)

	_, err = database.FlavorFor("oracle")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrate(t *testing.T) {
	db := databasetest.NewSQLite(t)
	assert.Equal(t, sqlbuilder.SQLite, db.Flavor())

	// second run has nothing to apply
	err := database.NewMigrationService(logging.Nop(), &database.MigrationConfig{}).Migrate(db)
	require.NoError(t, err)

	assert.Equal(t, 0, countAgents(t, context.Background(), db))

	var version int
	require.NoError(t, db.GetContext(context.Background(), &version, "SELECT version FROM schema_migrations"))
	assert.Equal(t, 2, version)
}

func TestGetTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db := databasetest.NewSQLite(t)
		ctx, tx, err := db.GetTx(context.Background(), nil)
		require.NoError(t, err)

		insertAgent(t, ctx, database.QueryerFrom(ctx, db), "a1")
		require.NoError(t, tx.Commit(ctx))
		assert.False(t, tx.IsOpen())

		// rollback after commit is a no-op
		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, 1, countAgents(t, context.Background(), db))
	})

	t.Run("rollback", func(t *testing.T) {
		db := databasetest.NewSQLite(t)
		ctx, tx, err := db.GetTx(context.Background(), nil)
		require.NoError(t, err)

		insertAgent(t, ctx, tx, "a1")
		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, 0, countAgents(t, context.Background(), db))
	})

	t.Run("joined transaction leaves commit to the owner", func(t *testing.T) {
		db := databasetest.NewSQLite(t)
		ctx, owner, err := db.GetTx(context.Background(), nil)
		require.NoError(t, err)

		innerCtx, inner, err := db.GetTx(ctx, nil)
		require.NoError(t, err)
		insertAgent(t, innerCtx, inner, "a1")
		require.NoError(t, inner.Commit(innerCtx))
		require.NoError(t, inner.Rollback(innerCtx))

		// still visible inside the owner's transaction
		assert.Equal(t, 1, countAgents(t, ctx, database.QueryerFrom(ctx, db)))

		require.NoError(t, owner.Rollback(ctx))
		assert.Equal(t, 0, countAgents(t, context.Background(), db))
	})
}

func TestQueryerFrom(t *testing.T) {
	db := databasetest.NewSQLite(t)
	assert.Equal(t, db, database.QueryerFrom(context.Background(), db))

	ctx, tx, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, db, database.QueryerFrom(ctx, db))

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, db, database.QueryerFrom(ctx, db))
}
