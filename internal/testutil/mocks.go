package testutil

import (
	"time"

	"github.com/stretchr/testify/mock"

	"contentgpt/internal/domain"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(userID int64) (*domain.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EnsureUser(userID int64, username, firstName string) error {
	args := m.Called(userID, username, firstName)
	return args.Error(0)
}

func (m *MockUserRepository) ApplySubscription(userID int64, tier domain.Tier, until time.Time) error {
	args := m.Called(userID, tier, until)
	return args.Error(0)
}

func (m *MockUserRepository) AddBonusPoints(userID int64, points int) error {
	args := m.Called(userID, points)
	return args.Error(0)
}

func (m *MockUserRepository) SaveStyle(userID int64, style string) error {
	args := m.Called(userID, style)
	return args.Error(0)
}

// MockQuotaRepository is a mock for QuotaRepository
type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) TryConsume(userID int64, day string, limit int) (int, bool, error) {
	args := m.Called(userID, day, limit)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockQuotaRepository) UsedOn(userID int64, day string) (int, error) {
	args := m.Called(userID, day)
	return args.Int(0), args.Error(1)
}

// MockPaymentRepository is a mock for PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(p *domain.Payment) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateIfAbsent(p *domain.Payment) (bool, error) {
	args := m.Called(p)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) GetByExternal(provider domain.PaymentProvider, externalID string) (*domain.Payment, error) {
	args := m.Called(provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkTerminal(provider domain.PaymentProvider, externalID string, status domain.PaymentStatus) (bool, error) {
	args := m.Called(provider, externalID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ExpirePendingBefore(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockContentRepository is a mock for ContentRepository
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) SaveGeneration(userID int64, kind domain.ContentKind, prompt, content string) error {
	args := m.Called(userID, kind, prompt, content)
	return args.Error(0)
}

func (m *MockContentRepository) SaveContent(userID int64, kind domain.ContentKind, prompt, content string) error {
	args := m.Called(userID, kind, prompt, content)
	return args.Error(0)
}

func (m *MockContentRepository) RecentSaved(userID int64, limit int) ([]domain.SavedContent, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavedContent), args.Error(1)
}

func (m *MockContentRepository) DeleteHistoryBefore(cutoff time.Time) error {
	args := m.Called(cutoff)
	return args.Error(0)
}

func (m *MockContentRepository) Stats() (*domain.Stats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}
