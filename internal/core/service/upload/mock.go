package upload

import (
	"context"
	"io"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadService is a mock implementation of port.UploadService
type MockUploadService struct {
	mock.Mock
}

// NewMockUploadService creates a new MockUploadService
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{}
}

func (m *MockUploadService) Open(ctx context.Context, ownerID, parentID uuid.UUID, name string, size, partSize int64, digest string, overwrite bool) (*domain.UploadTicket, error) {
	args := m.Called(ctx, ownerID, parentID, name, size, partSize, digest, overwrite)
	return args.Get(0).(*domain.UploadTicket), args.Error(1)
}

func (m *MockUploadService) ReceivePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) error {
	args := m.Called(ctx, sessionID, partNumber, body, size)
	return args.Error(0)
}

func (m *MockUploadService) Status(ctx context.Context, sessionID uuid.UUID) (*domain.UploadStatus, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(*domain.UploadStatus), args.Error(1)
}

func (m *MockUploadService) Finalize(ctx context.Context, sessionID uuid.UUID, mimeType string, totalParts int) (*domain.FileObject, error) {
	args := m.Called(ctx, sessionID, mimeType, totalParts)
	return args.Get(0).(*domain.FileObject), args.Error(1)
}

func (m *MockUploadService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
