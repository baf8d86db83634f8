package storage

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPartStore struct {
	mock.Mock
}

func NewMockPartStore() *MockPartStore {
	return &MockPartStore{}
}

func (m *MockPartStore) WritePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) (string, error) {
	args := m.Called(ctx, sessionID, partNumber, body, size)
	return args.String(0), args.Error(1)
}

func (m *MockPartStore) ReadPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (io.ReadCloser, error) {
	args := m.Called(ctx, sessionID, partNumber)
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockPartStore) DeleteParts(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{}
}

func (m *MockObjectStore) WriteObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockObjectStore) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
