package postgres_test

import (
	"context"
	"testing"

	"filedepot/internal/adapters/repository/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSQLQuotaRepository(t *testing.T) {
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()
	ctx := context.Background()

	repo := postgres.NewSQLQuotaRepository(dbConnection)

	t.Run("find account returns nil when missing", func(t *testing.T) {
		truncate()
		acc, err := repo.FindAccount(ctx, uuid.New())
		require.NoError(t, err)
		require.Nil(t, acc)
	})

	t.Run("ensure account creates with given limit", func(t *testing.T) {
		truncate()
		ownerID := uuid.New()
		require.NoError(t, repo.EnsureAccount(ctx, ownerID, 5000))

		acc, err := repo.FindAccount(ctx, ownerID)
		require.NoError(t, err)
		require.NotNil(t, acc)
		require.Equal(t, int64(5000), acc.LimitBytes)
		require.Equal(t, int64(0), acc.UsedBytes)
	})

	t.Run("ensure account keeps an existing limit", func(t *testing.T) {
		truncate()
		ownerID := uuid.New()
		require.NoError(t, repo.EnsureAccount(ctx, ownerID, 5000))
		require.NoError(t, repo.EnsureAccount(ctx, ownerID, 9000))

		acc, err := repo.FindAccount(ctx, ownerID)
		require.NoError(t, err)
		require.Equal(t, int64(5000), acc.LimitBytes)
	})

	t.Run("add usage accumulates and reverses", func(t *testing.T) {
		truncate()
		ownerID := uuid.New()
		require.NoError(t, repo.EnsureAccount(ctx, ownerID, 5000))

		require.NoError(t, repo.AddUsage(ctx, ownerID, 300))
		require.NoError(t, repo.AddUsage(ctx, ownerID, 200))
		require.NoError(t, repo.AddUsage(ctx, ownerID, -100))

		acc, err := repo.FindAccount(ctx, ownerID)
		require.NoError(t, err)
		require.Equal(t, int64(400), acc.UsedBytes)
	})
}
