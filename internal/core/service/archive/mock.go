package archive

import (
	"context"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockArchiveService is a mock implementation of port.ArchiveService
type MockArchiveService struct {
	mock.Mock
}

// NewMockArchiveService creates a new MockArchiveService
func NewMockArchiveService() *MockArchiveService {
	return &MockArchiveService{}
}

func (m *MockArchiveService) Prepare(ctx context.Context, ownerID uuid.UUID, kind domain.ArchiveJobKind, inputIDs []uuid.UUID, parentID uuid.UUID, targetName string) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID, kind, inputIDs, parentID, targetName)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockArchiveService) Status(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(*domain.ArchiveJob), args.Error(1)
}

func (m *MockArchiveService) Result(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(*domain.ArchiveJob), args.Error(1)
}
