package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contentgpt/internal/domain"
	"contentgpt/internal/repository"
	"contentgpt/internal/retrypolicy"
)

// CardProvider is the poll-style payment provider: we create payments and
// ask for their status
type CardProvider interface {
	CreatePayment(ctx context.Context, value float64, currency, description, orderID string) (*CreatedPayment, error)
	GetStatus(ctx context.Context, externalID string) (domain.PaymentStatus, error)
}

// CreatedPayment is the provider's answer to a create request
type CreatedPayment struct {
	ExternalID      string
	ConfirmationURL string
}

// Notifier delivers a message to a user. Fire-and-forget: failures are
// logged by the caller, never retried.
type Notifier interface {
	Notify(userID int64, text string)
}

// starsBonusPoints are granted once per successful Stars payment
const starsBonusPoints = 50

// starsPayload travels inside the Telegram invoice and comes back with the
// successful-payment push
type starsPayload struct {
	Tier  string `json:"tier"`
	Nonce string `json:"nonce"`
}

// PaymentService drives the payment lifecycle and commits subscription
// changes exactly once per payment, no matter how many delivery paths race
type PaymentService struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	card      CardProvider
	notifier  Notifier
	transient func(error) bool
	now       func() time.Time
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service. card may be nil when the
// poll-style provider is not configured; its features are then disabled.
func NewPaymentService(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	card CardProvider,
	notifier Notifier,
	transient func(error) bool,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		users:     users,
		card:      card,
		notifier:  notifier,
		transient: transient,
		now:       time.Now,
		logger:    logger,
	}
}

// CardEnabled reports whether card purchases are available
func (s *PaymentService) CardEnabled() bool {
	return s.card != nil
}

// StartCardPayment registers a payment with the card provider and persists
// it. Provider failures leave no payment row behind.
func (s *PaymentService) StartCardPayment(ctx context.Context, userID int64, tier domain.Tier) (*CreatedPayment, error) {
	if s.card == nil {
		return nil, domain.ErrProviderDisabled
	}

	plan := domain.PlanFor(tier)
	if plan.Tier == domain.TierFree || plan.Price <= 0 {
		return nil, fmt.Errorf("tier %q is not purchasable", tier)
	}

	orderID := uuid.NewString()
	created, err := s.card.CreatePayment(ctx, float64(plan.Price), plan.Currency,
		fmt.Sprintf("Подписка %s", plan.Name), orderID)
	if err != nil {
		return nil, err
	}

	// Born created: the payment is registered with the provider but the
	// user has not confirmed it yet.
	p := &domain.Payment{
		UserID:     userID,
		Provider:   domain.ProviderYooKassa,
		ExternalID: created.ExternalID,
		OrderID:    orderID,
		Tier:       plan.Tier,
		Amount:     float64(plan.Price),
		Currency:   plan.Currency,
		Status:     domain.PaymentCreated,
	}
	err = s.retry(ctx, func() error { return s.payments.Create(p) })
	if err != nil {
		return nil, s.wrapStorage(err)
	}

	s.logger.Info("Card payment created",
		zap.Int64("user_id", userID),
		zap.String("external_id", created.ExternalID),
		zap.String("tier", string(plan.Tier)),
	)

	return created, nil
}

// CheckCardPayment is the active reconciliation path: the user asked
// "did my payment go through". Provider errors mutate nothing and are
// surfaced as "try again shortly".
func (s *PaymentService) CheckCardPayment(ctx context.Context, externalID string) (domain.PaymentStatus, error) {
	if s.card == nil {
		return "", domain.ErrProviderDisabled
	}

	status, err := s.card.GetStatus(ctx, externalID)
	if err != nil {
		return "", err
	}

	if !status.IsTerminal() {
		return status, nil
	}

	if _, err := s.applyTerminal(ctx, domain.ProviderYooKassa, externalID, status); err != nil {
		return "", err
	}
	return status, nil
}

// HandleStarsPayment is the push path for Telegram Stars: the charge already
// happened, we persist it and apply the entitlement. Redelivered pushes are
// deduplicated structurally by the (provider, external_id) constraint, and
// applyTerminal makes the effect exactly-once either way.
func (s *PaymentService) HandleStarsPayment(ctx context.Context, userID int64, chargeID, payload string, amount float64, currency string) error {
	if chargeID == "" {
		return domain.ErrPayloadInvalid
	}

	var parsed starsPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || parsed.Tier == "" {
		return fmt.Errorf("%w: bad stars payload", domain.ErrPayloadInvalid)
	}
	tier := domain.ParseTier(parsed.Tier)
	if tier == domain.TierFree {
		return fmt.Errorf("%w: tier %q is not purchasable", domain.ErrPayloadInvalid, parsed.Tier)
	}

	p := &domain.Payment{
		UserID:     userID,
		Provider:   domain.ProviderStars,
		ExternalID: chargeID,
		Tier:       tier,
		Amount:     amount,
		Currency:   currency,
		Status:     domain.PaymentPending,
	}
	err := s.retry(ctx, func() error {
		_, ierr := s.payments.CreateIfAbsent(p)
		return ierr
	})
	if err != nil {
		return s.wrapStorage(err)
	}

	won, err := s.applyTerminal(ctx, domain.ProviderStars, chargeID, domain.PaymentSucceeded)
	if err != nil {
		return err
	}
	if won {
		if err := s.users.AddBonusPoints(userID, starsBonusPoints); err != nil {
			s.logger.Error("Failed to grant bonus points", zap.Error(err), zap.Int64("user_id", userID))
		}
	}
	return nil
}

// HandleWebhookEvent is the passive reconciliation path: a provider push
// delivered a terminal outcome. Non-terminal events are ignored.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, externalID string, status domain.PaymentStatus) error {
	if externalID == "" || !status.IsTerminal() {
		return domain.ErrPayloadInvalid
	}
	_, err := s.applyTerminal(ctx, domain.ProviderYooKassa, externalID, status)
	return err
}

// applyTerminal performs the single atomic "transition to terminal, but only
// if currently non-terminal" step. The winner applies the entitlement effect
// exactly once; losers see an already-terminal payment and no-op, which is
// how duplicate pushes, repeated polls and poll-vs-push races all collapse
// into one subscription update and one notification.
func (s *PaymentService) applyTerminal(ctx context.Context, provider domain.PaymentProvider, externalID string, status domain.PaymentStatus) (bool, error) {
	var won bool
	err := s.retry(ctx, func() error {
		var rerr error
		won, rerr = s.payments.MarkTerminal(provider, externalID, status)
		return rerr
	})
	if err != nil {
		return false, s.wrapStorage(err)
	}

	if !won {
		// Already terminal: a duplicate delivery, not an error.
		s.logger.Debug("Payment already terminal, skipping",
			zap.String("provider", string(provider)),
			zap.String("external_id", externalID),
		)
		return false, nil
	}

	p, err := s.payments.GetByExternal(provider, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return false, err
		}
		return false, s.wrapStorage(err)
	}

	s.logger.Info("Payment transitioned",
		zap.String("provider", string(provider)),
		zap.String("external_id", externalID),
		zap.String("status", string(status)),
		zap.Int64("user_id", p.UserID),
	)

	if status != domain.PaymentSucceeded {
		return true, nil
	}

	until := s.now().Add(domain.SubscriptionDuration)
	err = s.retry(ctx, func() error {
		return s.users.ApplySubscription(p.UserID, p.Tier, until)
	})
	if err != nil {
		// The payment is already terminal; this cannot be replayed through
		// another delivery. Log loudly for manual reconciliation.
		s.logger.Error("Subscription update failed after winning transition",
			zap.Error(err),
			zap.Int64("user_id", p.UserID),
			zap.String("external_id", externalID),
		)
		return true, s.wrapStorage(err)
	}

	plan := domain.PlanFor(p.Tier)
	s.notifier.Notify(p.UserID, fmt.Sprintf(
		"✅ Подписка %s активирована до %s. Спасибо!",
		plan.Name, until.Format("02.01.2006"),
	))

	return true, nil
}

// ExpireStalePending transitions payments stuck in a non-terminal status
// past maxAge into expired, through the same forward-only lifecycle
func (s *PaymentService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	var n int64
	err := s.retry(ctx, func() error {
		var rerr error
		n, rerr = s.payments.ExpirePendingBefore(cutoff)
		return rerr
	})
	if err != nil {
		return 0, s.wrapStorage(err)
	}
	if n > 0 {
		s.logger.Info("Expired stale pending payments", zap.Int64("count", n))
	}
	return n, nil
}

// BuildStarsPayload serializes the invoice payload for a Stars purchase
func BuildStarsPayload(tier domain.Tier) (string, error) {
	b, err := json.Marshal(starsPayload{Tier: string(tier), Nonce: uuid.NewString()})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *PaymentService) retry(ctx context.Context, fn func() error) error {
	return retrypolicy.Do(ctx, s.transient, fn)
}

func (s *PaymentService) wrapStorage(err error) error {
	if s.transient != nil && s.transient(err) {
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	return err
}
