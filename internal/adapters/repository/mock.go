package repository

import (
	"context"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUploadSessionRepository struct {
	mock.Mock
}

func NewMockUploadSessionRepository() *MockUploadSessionRepository {
	return &MockUploadSessionRepository{}
}

func (m *MockUploadSessionRepository) Create(ctx context.Context, session domain.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockUploadSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UploadSessionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUploadSessionRepository) UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

func (m *MockUploadSessionRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockUploadSessionRepository) FindNonTerminal(ctx context.Context) ([]domain.UploadSession, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UploadSession), args.Error(1)
}

func (m *MockUploadSessionRepository) FindFailedBefore(ctx context.Context, cutoff time.Time) ([]domain.UploadSession, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.UploadSession), args.Error(1)
}

type MockUploadPartRepository struct {
	mock.Mock
}

func NewMockUploadPartRepository() *MockUploadPartRepository {
	return &MockUploadPartRepository{}
}

func (m *MockUploadPartRepository) Upsert(ctx context.Context, part domain.PartRecord) error {
	args := m.Called(ctx, part)
	return args.Error(0)
}

func (m *MockUploadPartRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.PartRecord, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.PartRecord), args.Error(1)
}

func (m *MockUploadPartRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockFileRepository struct {
	mock.Mock
}

func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{}
}

func (m *MockFileRepository) Commit(ctx context.Context, obj domain.FileObject, overwrite bool) error {
	args := m.Called(ctx, obj, overwrite)
	return args.Error(0)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileObject, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.FileObject), args.Error(1)
}

func (m *MockFileRepository) FindByName(ctx context.Context, ownerID, parentID uuid.UUID, name string) (*domain.FileObject, error) {
	args := m.Called(ctx, ownerID, parentID, name)
	return args.Get(0).(*domain.FileObject), args.Error(1)
}

func (m *MockFileRepository) FindByDigest(ctx context.Context, ownerID uuid.UUID, digest string, size int64) (*domain.FileObject, error) {
	args := m.Called(ctx, ownerID, digest, size)
	return args.Get(0).(*domain.FileObject), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockQuotaRepository struct {
	mock.Mock
}

func NewMockQuotaRepository() *MockQuotaRepository {
	return &MockQuotaRepository{}
}

func (m *MockQuotaRepository) FindAccount(ctx context.Context, ownerID uuid.UUID) (*domain.QuotaAccount, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(*domain.QuotaAccount), args.Error(1)
}

func (m *MockQuotaRepository) EnsureAccount(ctx context.Context, ownerID uuid.UUID, limitBytes int64) error {
	args := m.Called(ctx, ownerID, limitBytes)
	return args.Error(0)
}

func (m *MockQuotaRepository) AddUsage(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	args := m.Called(ctx, ownerID, delta)
	return args.Error(0)
}

type MockUnitOfWork struct {
	mock.Mock
	uploadSessionRepo *MockUploadSessionRepository
	uploadPartRepo    *MockUploadPartRepository
	fileRepo          *MockFileRepository
	quotaRepo         *MockQuotaRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		uploadSessionRepo: &MockUploadSessionRepository{},
		uploadPartRepo:    &MockUploadPartRepository{},
		fileRepo:          &MockFileRepository{},
		quotaRepo:         &MockQuotaRepository{},
	}
}

func (m *MockUnitOfWork) UploadSessionRepo() port.UploadSessionRepository {
	return m.uploadSessionRepo
}

func (m *MockUnitOfWork) UploadPartRepo() port.UploadPartRepository {
	return m.uploadPartRepo
}

func (m *MockUnitOfWork) FileRepo() port.FileRepository {
	return m.fileRepo
}

func (m *MockUnitOfWork) QuotaRepo() port.QuotaRepository {
	return m.quotaRepo
}

// Execute runs fn against the same mocked repositories, so expectations set
// on the Get*Mock accessors cover transactional calls too.
func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	return fn(m)
}

func (m *MockUnitOfWork) GetUploadSessionRepoMock() *MockUploadSessionRepository {
	return m.uploadSessionRepo
}

func (m *MockUnitOfWork) GetUploadPartRepoMock() *MockUploadPartRepository {
	return m.uploadPartRepo
}

func (m *MockUnitOfWork) GetFileRepoMock() *MockFileRepository {
	return m.fileRepo
}

func (m *MockUnitOfWork) GetQuotaRepoMock() *MockQuotaRepository {
	return m.quotaRepo
}
