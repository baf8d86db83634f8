package quota

import (
	"context"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLedger is a mock implementation of port.QuotaLedger
type MockLedger struct {
	mock.Mock
}

// NewMockLedger creates a new MockLedger
func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) Reserve(ctx context.Context, ownerID uuid.UUID, bytes int64) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID, bytes)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedger) Commit(ctx context.Context, reservationID uuid.UUID) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

func (m *MockLedger) Release(ctx context.Context, reservationID uuid.UUID) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

func (m *MockLedger) Account(ctx context.Context, ownerID uuid.UUID) (domain.QuotaAccount, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.QuotaAccount), args.Error(1)
}
