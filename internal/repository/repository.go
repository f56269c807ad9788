package repository

import (
	"time"

	"contentgpt/internal/domain"
)

// UserRepository defines user data operations.
// The store owns user rows exclusively; users are never deleted here.
type UserRepository interface {
	// GetUser returns the user or domain.ErrUserNotFound. It creates nothing.
	GetUser(userID int64) (*domain.User, error)
	// EnsureUser creates the user on first contact. Idempotent: concurrent
	// first-contact races resolve to a no-op, not an error.
	EnsureUser(userID int64, username, firstName string) error
	// ApplySubscription unconditionally overwrites tier and expiry.
	// Called only by the payment reconciler's winning transition.
	ApplySubscription(userID int64, tier domain.Tier, until time.Time) error
	// AddBonusPoints increments the user's bonus balance.
	AddBonusPoints(userID int64, points int) error
	// SaveStyle stores the analyzed author style for later prompts.
	SaveStyle(userID int64, style string) error
}

// QuotaRepository defines the daily usage counter operations
type QuotaRepository interface {
	// TryConsume atomically checks-and-increments the (userID, day) counter
	// against limit. Under N concurrent calls with limit L, exactly
	// min(N, L) observe allowed=true and the stored count equals that
	// number. The returned used is the counter value after this call.
	TryConsume(userID int64, day string, limit int) (used int, allowed bool, err error)
	// UsedOn returns the counter value for the day, zero if absent
	UsedOn(userID int64, day string) (int, error)
}

// PaymentRepository defines payment lifecycle persistence
type PaymentRepository interface {
	// Create inserts a new payment row
	Create(p *domain.Payment) error
	// CreateIfAbsent inserts a payment unless one with the same
	// (provider, external_id) exists. Returns whether this call inserted,
	// which makes duplicate push deliveries structurally detectable.
	CreateIfAbsent(p *domain.Payment) (inserted bool, err error)
	// GetByExternal returns the payment for a provider reference or
	// domain.ErrPaymentNotFound
	GetByExternal(provider domain.PaymentProvider, externalID string) (*domain.Payment, error)
	// MarkTerminal transitions the payment to a terminal status only if it
	// is currently non-terminal. Returns whether this call won the
	// transition; a false result with nil error means the payment was
	// already terminal.
	MarkTerminal(provider domain.PaymentProvider, externalID string, status domain.PaymentStatus) (won bool, err error)
	// ExpirePendingBefore marks payments still pending past the cutoff as
	// expired, returning how many were transitioned
	ExpirePendingBefore(cutoff time.Time) (int64, error)
}

// ContentRepository defines generation history and saved content persistence
type ContentRepository interface {
	SaveGeneration(userID int64, kind domain.ContentKind, prompt, content string) error
	SaveContent(userID int64, kind domain.ContentKind, prompt, content string) error
	RecentSaved(userID int64, limit int) ([]domain.SavedContent, error)
	// DeleteHistoryBefore removes generation history older than the cutoff
	DeleteHistoryBefore(cutoff time.Time) error
	// Stats returns aggregate counters for the admin panel
	Stats() (*domain.Stats, error)
}
