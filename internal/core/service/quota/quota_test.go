package quota_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/service/quota"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLedger_Reserve_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 1000}, nil)
	ledger := quota.NewLedger(mockRepo, 500, testLogger)

	// Act
	resID, err := ledger.Reserve(ctx, ownerID, 600)

	// Assert
	assert.NoError(t, err)
	require.NotEqual(t, uuid.Nil, resID)
	mockRepo.AssertExpectations(t)
}

func TestLedger_Reserve_UnknownOwnerGetsDefaultLimit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return((*domain.QuotaAccount)(nil), nil)
	mockRepo.On("EnsureAccount", ctx, ownerID, int64(500)).Return(nil)
	ledger := quota.NewLedger(mockRepo, 500, testLogger)

	// Act
	_, okErr := ledger.Reserve(ctx, ownerID, 500)
	_, exceededErr := ledger.Reserve(ctx, ownerID, 1)

	// Assert
	assert.NoError(t, okErr)
	assert.ErrorIs(t, exceededErr, domain.ErrQuotaExceeded)
	mockRepo.AssertExpectations(t)
}

func TestLedger_Reserve_CountsUsedAndActiveBytes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 1000, UsedBytes: 400}, nil)
	ledger := quota.NewLedger(mockRepo, 0, testLogger)

	_, err := ledger.Reserve(ctx, ownerID, 300)
	require.NoError(t, err)

	// Act
	_, err = ledger.Reserve(ctx, ownerID, 301)

	// Assert
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestLedger_Commit_WritesUsageThrough(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 1000}, nil)
	mockRepo.On("AddUsage", ctx, ownerID, int64(250)).Return(nil).Once()
	ledger := quota.NewLedger(mockRepo, 0, testLogger)

	resID, err := ledger.Reserve(ctx, ownerID, 250)
	require.NoError(t, err)

	// Act
	err = ledger.Commit(ctx, resID)
	again := ledger.Commit(ctx, resID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, again)

	acc, err := ledger.Account(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), acc.UsedBytes)
	mockRepo.AssertExpectations(t)
}

func TestLedger_Release_ReturnsBytesToPool(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 100}, nil)
	ledger := quota.NewLedger(mockRepo, 0, testLogger)

	resID, err := ledger.Reserve(ctx, ownerID, 100)
	require.NoError(t, err)

	_, blocked := ledger.Reserve(ctx, ownerID, 1)
	require.ErrorIs(t, blocked, domain.ErrQuotaExceeded)

	// Act
	err = ledger.Release(ctx, resID)

	// Assert
	assert.NoError(t, err)
	_, err = ledger.Reserve(ctx, ownerID, 100)
	assert.NoError(t, err)
}

func TestLedger_Release_UnknownReservation(t *testing.T) {
	// Arrange
	ledger := quota.NewLedger(repository.NewMockQuotaRepository(), 0, testLogger)

	// Act
	err := ledger.Release(context.Background(), uuid.New())

	// Assert
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestLedger_Restore_IsIdempotent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	resID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 100}, nil)
	ledger := quota.NewLedger(mockRepo, 0, testLogger)

	// Act
	ledger.Restore(ownerID, resID, 60)
	ledger.Restore(ownerID, resID, 60)

	// Assert
	acc, err := ledger.Account(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), acc.UsedBytes)

	_, err = ledger.Reserve(ctx, ownerID, 50)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

// Hammering Reserve from many goroutines must never admit more bytes than
// the limit allows, whatever the interleaving.
func TestLedger_Reserve_ConcurrentNeverExceedsLimit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ownerID := uuid.New()
	mockRepo := repository.NewMockQuotaRepository()
	mockRepo.On("FindAccount", ctx, ownerID).Return(&domain.QuotaAccount{OwnerID: ownerID, LimitBytes: 1000}, nil)
	ledger := quota.NewLedger(mockRepo, 0, testLogger)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var granted int

	// Act
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Reserve(ctx, ownerID, 100); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 10, granted)

	acc, err := ledger.Account(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.UsedBytes)
}
