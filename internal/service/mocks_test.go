package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"contentgpt/internal/domain"
)

// mockGenerator is a mock for Generator
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, kind domain.ContentKind) (string, error) {
	args := m.Called(ctx, prompt, kind)
	return args.String(0), args.Error(1)
}

// mockCardProvider is a mock for CardProvider
type mockCardProvider struct {
	mock.Mock
}

func (m *mockCardProvider) CreatePayment(ctx context.Context, value float64, currency, description, orderID string) (*CreatedPayment, error) {
	args := m.Called(ctx, value, currency, description, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreatedPayment), args.Error(1)
}

func (m *mockCardProvider) GetStatus(ctx context.Context, externalID string) (domain.PaymentStatus, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(domain.PaymentStatus), args.Error(1)
}

// recordingNotifier collects delivered notifications
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// neverTransient classifies every error as permanent, keeping retries out of
// the way of unit tests
func neverTransient(error) bool {
	return false
}
