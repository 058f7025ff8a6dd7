package service

import (
	"context"
	"time"

	"smartquiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockBackend ---
type MockBackend struct {
	mock.Mock
	name string
}

func NewMockBackend(name string) *MockBackend {
	return &MockBackend{name: name}
}

func (m *MockBackend) Name() string { return m.name }

func (m *MockBackend) Call(ctx context.Context, prompt string, timeout time.Duration, model string) domain.BackendResult {
	args := m.Called(ctx, prompt, timeout, model)
	return args.Get(0).(domain.BackendResult)
}
