package upload_test

import (
	"context"
	"testing"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/service/quota"
	"filedepot/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUploadService_Cancel_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockParts := storage.NewMockPartStore()
	mockLedger := quota.NewMockLedger()
	service := upload.NewUploadService(mockUow, mockParts, storage.NewMockObjectStore(), mockLedger, nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	session := receivingSession(sessionID)
	session.ReservationID = uuid.New()

	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return(session, nil)
	mockUow.GetUploadSessionRepoMock().On("UpdateStatus", ctx, sessionID, domain.UploadSessionStatusCancelled).Return(nil)
	mockUow.GetUploadPartRepoMock().On("DeleteBySession", ctx, sessionID).Return(nil)
	mockLedger.On("Release", ctx, session.ReservationID).Return(nil)
	mockParts.On("DeleteParts", ctx, sessionID).Return(nil)

	// Act
	err := service.Cancel(ctx, sessionID)

	// Assert
	assert.NoError(t, err)
	mockUow.GetUploadSessionRepoMock().AssertExpectations(t)
	mockLedger.AssertExpectations(t)
	mockParts.AssertExpectations(t)
}

func TestUploadService_Cancel_LosesRaceAgainstFinalize(t *testing.T) {
	// Arrange
	ctx := context.Background()
	arena := upload.NewArena()
	service := upload.NewUploadService(repository.NewMockUnitOfWork(), storage.NewMockPartStore(), storage.NewMockObjectStore(), quota.NewMockLedger(), nil, arena, defaultCfg, testLogger)

	sessionID := uuid.New()
	require.True(t, arena.TryAcquire(sessionID))
	defer arena.Release(sessionID)

	// Act
	err := service.Cancel(ctx, sessionID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrFinalizeInProgress)
}

func TestUploadService_Cancel_TerminalSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockLedger := quota.NewMockLedger()
	service := upload.NewUploadService(mockUow, storage.NewMockPartStore(), storage.NewMockObjectStore(), mockLedger, nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	session := receivingSession(sessionID)
	session.Status = domain.UploadSessionStatusExpired
	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return(session, nil)

	// Act
	err := service.Cancel(ctx, sessionID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	mockLedger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestUploadService_Cancel_UnknownSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := upload.NewUploadService(mockUow, storage.NewMockPartStore(), storage.NewMockObjectStore(), quota.NewMockLedger(), nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return((*domain.UploadSession)(nil), domain.ErrSessionNotFound)

	// Act
	err := service.Cancel(ctx, sessionID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
