package domain

import "time"

// PaymentProvider identifies how a payment is delivered and reconciled
type PaymentProvider string

const (
	// ProviderYooKassa is the poll-style provider: we created the payment
	// and ask for its status
	ProviderYooKassa PaymentProvider = "yookassa"
	// ProviderStars is the push-style provider: Telegram delivers a
	// successful charge asynchronously
	ProviderStars PaymentProvider = "telegram_stars"
)

// PaymentStatus is a stage in the payment lifecycle.
// Transitions only move forward: created → pending → {succeeded, failed, expired}.
type PaymentStatus string

const (
	// PaymentCreated: registered with the provider, user has not paid yet
	PaymentCreated PaymentStatus = "created"
	// PaymentPending: charged or confirmed, awaiting reconciliation
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
)

// IsTerminal reports whether no further transition is permitted
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentSucceeded, PaymentFailed, PaymentExpired:
		return true
	default:
		return false
	}
}

// Payment is a persisted payment record
type Payment struct {
	ID         int64
	UserID     int64
	Provider   PaymentProvider
	ExternalID string
	OrderID    string
	Tier       Tier
	Amount     float64
	Currency   string
	Status     PaymentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SubscriptionDuration is how long one successful payment extends a subscription
const SubscriptionDuration = 30 * 24 * time.Hour
