package testutil

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user on the given tier
func NewTestUser(userID int64, tier domain.Tier, until *time.Time) *domain.User {
	return &domain.User{
		UserID:            userID,
		Username:          "tester",
		Tier:              tier,
		SubscriptionUntil: until,
		CreatedAt:         time.Now(),
	}
}

// NewTestPayment creates a pending test payment
func NewTestPayment(userID int64, provider domain.PaymentProvider, externalID string, tier domain.Tier) *domain.Payment {
	plan := domain.PlanFor(tier)
	return &domain.Payment{
		UserID:     userID,
		Provider:   provider,
		ExternalID: externalID,
		Tier:       tier,
		Amount:     float64(plan.Price),
		Currency:   plan.Currency,
		Status:     domain.PaymentPending,
		CreatedAt:  time.Now(),
	}
}

// FakeQuotaRepo is an in-memory quota counter with real check-and-increment
// atomicity, for exercising concurrent consumers
type FakeQuotaRepo struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewFakeQuotaRepo creates an empty in-memory quota repo
func NewFakeQuotaRepo() *FakeQuotaRepo {
	return &FakeQuotaRepo{counts: make(map[string]int)}
}

func (f *FakeQuotaRepo) key(userID int64, day string) string {
	return fmt.Sprintf("%d/%s", userID, day)
}

func (f *FakeQuotaRepo) TryConsume(userID int64, day string, limit int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := f.key(userID, day)
	if f.counts[k] >= limit {
		return f.counts[k], false, nil
	}
	f.counts[k]++
	return f.counts[k], true, nil
}

func (f *FakeQuotaRepo) UsedOn(userID int64, day string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[f.key(userID, day)], nil
}
