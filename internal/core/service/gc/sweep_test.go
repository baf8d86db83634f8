package gc_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/config"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/service/gc"
	"filedepot/internal/core/service/quota"
	"filedepot/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var gcCfg = config.GCConfig{
	SweepEvery:  15 * time.Minute,
	FailedGrace: 24 * time.Hour,
}

func session(status domain.UploadSessionStatus, expiresAt time.Time) domain.UploadSession {
	return domain.UploadSession{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Status:        status,
		ReservationID: uuid.New(),
		ExpiresAt:     expiresAt,
	}
}

func TestGCService_Sweep_ReclaimsExpiredSessions(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	mockLedger := quota.NewMockLedger()
	service := gc.NewGCService(mockUow, mockParts, mockLedger, nil, upload.NewArena(), gcCfg, testLogger)

	expired := session(domain.UploadSessionStatusReceiving, now.Add(-time.Minute))
	fresh := session(domain.UploadSessionStatusReceiving, now.Add(time.Hour))

	mockUow.GetUploadSessionRepoMock().On("FindNonTerminal", ctx).Return([]domain.UploadSession{expired, fresh}, nil)
	mockUow.GetUploadSessionRepoMock().On("UpdateStatus", ctx, expired.ID, domain.UploadSessionStatusExpired).Return(nil)
	mockUow.GetUploadPartRepoMock().On("DeleteBySession", ctx, expired.ID).Return(nil)
	mockLedger.On("Release", ctx, expired.ReservationID).Return(nil)
	mockParts.On("DeleteParts", ctx, expired.ID).Return(nil)
	mockUow.GetUploadSessionRepoMock().On("FindFailedBefore", ctx, mock.Anything).Return([]domain.UploadSession{}, nil)

	// Act
	report, err := service.Sweep(ctx, now, false)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.LockedStale)
	mockLedger.AssertExpectations(t)
	mockParts.AssertExpectations(t)
}

func TestGCService_Sweep_DryRunMutatesNothing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	mockLedger := quota.NewMockLedger()
	arena := upload.NewArena()
	service := gc.NewGCService(mockUow, mockParts, mockLedger, nil, arena, gcCfg, testLogger)

	expired := session(domain.UploadSessionStatusReceiving, now.Add(-time.Minute))
	failed := session(domain.UploadSessionStatusFailed, now.Add(-48*time.Hour))

	mockUow.GetUploadSessionRepoMock().On("FindNonTerminal", ctx).Return([]domain.UploadSession{expired}, nil)
	mockUow.GetUploadSessionRepoMock().On("FindFailedBefore", ctx, mock.Anything).Return([]domain.UploadSession{failed}, nil)

	// Act
	report, err := service.Sweep(ctx, now, true)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Deleted)
	mockUow.GetUploadSessionRepoMock().AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	mockUow.GetUploadPartRepoMock().AssertNotCalled(t, "DeleteBySession", mock.Anything, mock.Anything)
	mockParts.AssertNotCalled(t, "DeleteParts", mock.Anything, mock.Anything)
	mockLedger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	// dry run must leave the lock free for the next pass
	assert.True(t, arena.TryAcquire(expired.ID))
}

func TestGCService_Sweep_SkipsFinalizeLockedSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	arena := upload.NewArena()
	service := gc.NewGCService(mockUow, mockParts, quota.NewMockLedger(), nil, arena, gcCfg, testLogger)

	expired := session(domain.UploadSessionStatusFinalizePending, now.Add(-time.Minute))
	require.True(t, arena.TryAcquire(expired.ID))
	defer arena.Release(expired.ID)

	mockUow.GetUploadSessionRepoMock().On("FindNonTerminal", ctx).Return([]domain.UploadSession{expired}, nil)
	mockUow.GetUploadSessionRepoMock().On("FindFailedBefore", ctx, mock.Anything).Return([]domain.UploadSession{}, nil)

	// Act
	report, err := service.Sweep(ctx, now, false)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.LockedStale)
	assert.Equal(t, 0, report.Deleted)
	mockParts.AssertNotCalled(t, "DeleteParts", mock.Anything, mock.Anything)
}

func TestGCService_Sweep_ReclaimsFailedSessionsPastGrace(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	service := gc.NewGCService(mockUow, mockParts, quota.NewMockLedger(), nil, upload.NewArena(), gcCfg, testLogger)

	failed := session(domain.UploadSessionStatusFailed, now.Add(-48*time.Hour))

	mockUow.GetUploadSessionRepoMock().On("FindNonTerminal", ctx).Return([]domain.UploadSession{}, nil)
	mockUow.GetUploadSessionRepoMock().On("FindFailedBefore", ctx, now.Add(-gcCfg.FailedGrace)).Return([]domain.UploadSession{failed}, nil)
	mockUow.GetUploadPartRepoMock().On("DeleteBySession", ctx, failed.ID).Return(nil)
	mockParts.On("DeleteParts", ctx, failed.ID).Return(nil)

	// Act
	report, err := service.Sweep(ctx, now, false)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Deleted)
	mockParts.AssertExpectations(t)
}

func TestGCService_Sweep_OneFailureDoesNotAbortPass(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	mockLedger := quota.NewMockLedger()
	service := gc.NewGCService(mockUow, mockParts, mockLedger, nil, upload.NewArena(), gcCfg, testLogger)

	broken := session(domain.UploadSessionStatusReceiving, now.Add(-time.Minute))
	healthy := session(domain.UploadSessionStatusReceiving, now.Add(-time.Minute))

	mockUow.GetUploadSessionRepoMock().On("FindNonTerminal", ctx).Return([]domain.UploadSession{broken, healthy}, nil)
	mockUow.GetUploadSessionRepoMock().On("UpdateStatus", ctx, broken.ID, domain.UploadSessionStatusExpired).Return(assert.AnError)
	mockUow.GetUploadSessionRepoMock().On("UpdateStatus", ctx, healthy.ID, domain.UploadSessionStatusExpired).Return(nil)
	mockUow.GetUploadPartRepoMock().On("DeleteBySession", ctx, healthy.ID).Return(nil)
	mockLedger.On("Release", ctx, healthy.ReservationID).Return(nil)
	mockParts.On("DeleteParts", ctx, healthy.ID).Return(nil)
	mockUow.GetUploadSessionRepoMock().On("FindFailedBefore", ctx, mock.Anything).Return([]domain.UploadSession{}, nil)

	// Act
	report, err := service.Sweep(ctx, now, false)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Deleted)
}
