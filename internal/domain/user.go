package domain

import "time"

// User represents a bot user
type User struct {
	UserID            int64
	Username          string
	FirstName         string
	Tier              Tier
	SubscriptionUntil *time.Time
	BonusPoints       int
	IsAdmin           bool
	Style             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveTier returns the tier the user is entitled to at the given moment.
// An elapsed subscription falls back to the free tier, so no background
// expiry job is needed.
func (u *User) EffectiveTier(now time.Time) Tier {
	if u.Tier == TierFree {
		return TierFree
	}
	if u.SubscriptionUntil == nil || !u.SubscriptionUntil.After(now) {
		return TierFree
	}
	return u.Tier
}
