package agent

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLookup is a mock implementation of Lookup using testify/mock.
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Search(ctx context.Context, keywords []string) (any, error) {
	args := m.Called(ctx, keywords)
	return args.Get(0), args.Error(1)
}
