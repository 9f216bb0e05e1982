package genai

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a mock implementation of Completer using testify/mock.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
