package upload_test

import (
	"context"
	"testing"
	"time"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/service/quota"
	"filedepot/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadService_Status_ReportsMissingParts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := upload.NewUploadService(mockUow, storage.NewMockPartStore(), storage.NewMockObjectStore(), quota.NewMockLedger(), nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	session := receivingSession(sessionID)
	session.TotalParts = 5
	session.ExpiresAt = time.Now().Add(10 * time.Minute)

	// parts 4 and 2 arrived out of order, 1, 3 and 5 still missing
	parts := []domain.PartRecord{
		{SessionID: sessionID, PartNumber: 4, Size: 100},
		{SessionID: sessionID, PartNumber: 2, Size: 100},
	}

	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return(session, nil)
	mockUow.GetUploadPartRepoMock().On("FindBySession", ctx, sessionID).Return(parts, nil)

	// Act
	status, err := service.Status(ctx, sessionID)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, domain.UploadSessionStatusReceiving, status.Status)
	assert.Equal(t, []int{2, 4}, status.UploadedParts)
	assert.Equal(t, []int{1, 3, 5}, status.MissingParts)
	assert.Equal(t, int64(200), status.UploadedBytes)
	assert.Greater(t, status.ExpiresIn, time.Duration(0))
}

func TestUploadService_Status_ExpiredSessionClampsTTL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := upload.NewUploadService(mockUow, storage.NewMockPartStore(), storage.NewMockObjectStore(), quota.NewMockLedger(), nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	session := receivingSession(sessionID)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return(session, nil)
	mockUow.GetUploadPartRepoMock().On("FindBySession", ctx, sessionID).Return([]domain.PartRecord{}, nil)

	// Act
	status, err := service.Status(ctx, sessionID)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, time.Duration(0), status.ExpiresIn)
}

func TestUploadService_Status_UnknownSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	service := upload.NewUploadService(mockUow, storage.NewMockPartStore(), storage.NewMockObjectStore(), quota.NewMockLedger(), nil, upload.NewArena(), defaultCfg, testLogger)

	sessionID := uuid.New()
	mockUow.GetUploadSessionRepoMock().On("FindByID", ctx, sessionID).Return((*domain.UploadSession)(nil), domain.ErrSessionNotFound)

	// Act
	status, err := service.Status(ctx, sessionID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.Nil(t, status)
}
