package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
	"contentgpt/internal/repository"
	"contentgpt/internal/retrypolicy"
)

// QuotaStatus is the answer to a quota question
type QuotaStatus struct {
	Allowed   bool
	Used      int
	Limit     int
	Unlimited bool
}

// QuotaService is the check-and-consume boundary between feature requests
// and the entitlement store
type QuotaService struct {
	users     repository.UserRepository
	quota     repository.QuotaRepository
	adminID   int64
	transient func(error) bool
	now       func() time.Time
	logger    *zap.Logger
}

// NewQuotaService creates a new quota service. adminID is the operator from
// configuration; transient classifies storage errors worth retrying under
// the shared policy.
func NewQuotaService(
	users repository.UserRepository,
	quota repository.QuotaRepository,
	adminID int64,
	transient func(error) bool,
	logger *zap.Logger,
) *QuotaService {
	return &QuotaService{
		users:     users,
		quota:     quota,
		adminID:   adminID,
		transient: transient,
		now:       time.Now,
		logger:    logger,
	}
}

// isAdmin honors both admin sources: the configured ADMIN_ID and the
// per-user database flag
func (s *QuotaService) isAdmin(user *domain.User) bool {
	if user.IsAdmin {
		return true
	}
	return s.adminID != 0 && user.UserID == s.adminID
}

// Check answers whether the user could run a generation right now without
// consuming anything. Used at flow entry so abandoning a wizard mid-way
// never costs allowance.
func (s *QuotaService) Check(ctx context.Context, userID int64) (*QuotaStatus, error) {
	user, limit, err := s.effectiveLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.isAdmin(user) {
		return &QuotaStatus{Allowed: true, Unlimited: true, Limit: limit}, nil
	}

	day := domain.Today(s.now())
	var used int
	err = s.retry(ctx, func() error {
		var rerr error
		used, rerr = s.quota.UsedOn(userID, day)
		return rerr
	})
	if err != nil {
		return nil, s.wrapStorage(err)
	}

	return &QuotaStatus{Allowed: used < limit, Used: used, Limit: limit}, nil
}

// Consume performs the atomic check-and-increment for today. Admins are
// always allowed and never touch the counter.
func (s *QuotaService) Consume(ctx context.Context, userID int64) (*QuotaStatus, error) {
	user, limit, err := s.effectiveLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.isAdmin(user) {
		return &QuotaStatus{Allowed: true, Unlimited: true, Limit: limit}, nil
	}

	day := domain.Today(s.now())
	var (
		used    int
		allowed bool
	)
	err = s.retry(ctx, func() error {
		var rerr error
		used, allowed, rerr = s.quota.TryConsume(userID, day, limit)
		return rerr
	})
	if err != nil {
		return nil, s.wrapStorage(err)
	}

	if !allowed {
		s.logger.Info("Generation denied by quota",
			zap.Int64("user_id", userID),
			zap.Int("used", used),
			zap.Int("limit", limit),
		)
	}

	return &QuotaStatus{Allowed: allowed, Used: used, Limit: limit}, nil
}

// Profile returns the user together with today's quota status, for the
// profile card
func (s *QuotaService) Profile(ctx context.Context, userID int64) (*domain.User, *QuotaStatus, error) {
	user, _, err := s.effectiveLimit(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	st, err := s.Check(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, st, nil
}

// effectiveLimit loads the user and derives today's allowance from the tier,
// lazily treating an elapsed subscription as free
func (s *QuotaService) effectiveLimit(ctx context.Context, userID int64) (*domain.User, int, error) {
	var user *domain.User
	err := s.retry(ctx, func() error {
		var rerr error
		user, rerr = s.users.GetUser(userID)
		return rerr
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, 0, err
		}
		return nil, 0, s.wrapStorage(err)
	}

	tier := user.EffectiveTier(s.now())
	return user, domain.PlanFor(tier).DailyLimit, nil
}

func (s *QuotaService) retry(ctx context.Context, fn func() error) error {
	return retrypolicy.Do(ctx, s.transient, fn)
}

func (s *QuotaService) wrapStorage(err error) error {
	if s.transient != nil && s.transient(err) {
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	return err
}
