package history

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatkit/internal/agent"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Append(ctx context.Context, sessionID string, messages ...agent.Message) error {
	args := m.Called(ctx, sessionID, messages)
	return args.Error(0)
}

func (m *MockStore) Recent(ctx context.Context, sessionID string, limit int) ([]agent.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agent.Message), args.Error(1)
}

func (m *MockStore) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
