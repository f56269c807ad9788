package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"contentgpt/internal/domain"
	"contentgpt/internal/testutil"
)

func newPaymentService(
	payments *testutil.MockPaymentRepository,
	users *testutil.MockUserRepository,
	card CardProvider,
) (*PaymentService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	svc := NewPaymentService(payments, users, card, notifier, neverTransient, testutil.NewTestLogger())
	return svc, notifier
}

func TestPaymentService_StartCardPayment(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	card.On("CreatePayment", mock.Anything, 79.0, "RUB", mock.Anything, mock.Anything).
		Return(&CreatedPayment{ExternalID: "ext-1", ConfirmationURL: "https://pay"}, nil)
	payments.On("Create", mock.MatchedBy(func(p *domain.Payment) bool {
		// The row is born created; the user has not confirmed yet.
		return p.UserID == 123 &&
			p.Provider == domain.ProviderYooKassa &&
			p.ExternalID == "ext-1" &&
			p.Tier == domain.TierBasic &&
			p.Status == domain.PaymentCreated
	})).Return(nil)

	svc, _ := newPaymentService(payments, users, card)

	created, err := svc.StartCardPayment(context.Background(), 123, domain.TierBasic)

	assert.NoError(t, err)
	assert.Equal(t, "ext-1", created.ExternalID)
	assert.Equal(t, "https://pay", created.ConfirmationURL)
	payments.AssertExpectations(t)
	card.AssertExpectations(t)
}

func TestPaymentService_StartCardPayment_ProviderFailureLeavesNoRow(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	card.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderUnavailable)

	svc, _ := newPaymentService(payments, users, card)

	_, err := svc.StartCardPayment(context.Background(), 123, domain.TierBasic)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	payments.AssertNotCalled(t, "Create", mock.Anything)
}

func TestPaymentService_StartCardPayment_FreeTierRejected(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	svc, _ := newPaymentService(payments, users, card)

	_, err := svc.StartCardPayment(context.Background(), 123, domain.TierFree)

	assert.Error(t, err)
	card.AssertNotCalled(t, "CreatePayment",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_StartCardPayment_Disabled(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	svc, _ := newPaymentService(payments, users, nil)

	_, err := svc.StartCardPayment(context.Background(), 123, domain.TierBasic)

	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
	assert.False(t, svc.CardEnabled())
}

func TestPaymentService_CheckCardPayment_NonTerminalMutatesNothing(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	card.On("GetStatus", mock.Anything, "ext-1").Return(domain.PaymentPending, nil)

	svc, notifier := newPaymentService(payments, users, card)

	status, err := svc.CheckCardPayment(context.Background(), "ext-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, status)
	payments.AssertNotCalled(t, "MarkTerminal", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, notifier.count())
}

func TestPaymentService_CheckCardPayment_SucceededAppliesOnce(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	p := testutil.NewTestPayment(123, domain.ProviderYooKassa, "ext-1", domain.TierPremium)

	card.On("GetStatus", mock.Anything, "ext-1").Return(domain.PaymentSucceeded, nil)
	payments.On("MarkTerminal", domain.ProviderYooKassa, "ext-1", domain.PaymentSucceeded).
		Return(true, nil)
	payments.On("GetByExternal", domain.ProviderYooKassa, "ext-1").Return(p, nil)
	users.On("ApplySubscription", int64(123), domain.TierPremium, mock.Anything).Return(nil)

	svc, notifier := newPaymentService(payments, users, card)

	status, err := svc.CheckCardPayment(context.Background(), "ext-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, status)
	users.AssertNumberOfCalls(t, "ApplySubscription", 1)
	assert.Equal(t, 1, notifier.count())
}

// The poll path and the webhook path race toward the same terminal
// transition. Whatever the interleaving, the subscription is applied and the
// user notified exactly once.
func TestPaymentService_PollAndPushRace(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)
	card := new(mockCardProvider)

	p := testutil.NewTestPayment(123, domain.ProviderYooKassa, "ext-1", domain.TierBasic)

	card.On("GetStatus", mock.Anything, "ext-1").Return(domain.PaymentSucceeded, nil)
	// First delivery wins the compare-and-set, every later one loses.
	payments.On("MarkTerminal", domain.ProviderYooKassa, "ext-1", domain.PaymentSucceeded).
		Return(true, nil).Once()
	payments.On("MarkTerminal", domain.ProviderYooKassa, "ext-1", domain.PaymentSucceeded).
		Return(false, nil)
	payments.On("GetByExternal", domain.ProviderYooKassa, "ext-1").Return(p, nil)
	users.On("ApplySubscription", int64(123), domain.TierBasic, mock.Anything).Return(nil)

	svc, notifier := newPaymentService(payments, users, card)

	_, err := svc.CheckCardPayment(context.Background(), "ext-1")
	assert.NoError(t, err)

	err = svc.HandleWebhookEvent(context.Background(), "ext-1", domain.PaymentSucceeded)
	assert.NoError(t, err)

	err = svc.HandleWebhookEvent(context.Background(), "ext-1", domain.PaymentSucceeded)
	assert.NoError(t, err)

	users.AssertNumberOfCalls(t, "ApplySubscription", 1)
	assert.Equal(t, 1, notifier.count())
}

func TestPaymentService_HandleWebhookEvent_FailedGrantsNothing(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	p := testutil.NewTestPayment(123, domain.ProviderYooKassa, "ext-1", domain.TierBasic)

	payments.On("MarkTerminal", domain.ProviderYooKassa, "ext-1", domain.PaymentFailed).
		Return(true, nil)
	payments.On("GetByExternal", domain.ProviderYooKassa, "ext-1").Return(p, nil)

	svc, notifier := newPaymentService(payments, users, nil)

	err := svc.HandleWebhookEvent(context.Background(), "ext-1", domain.PaymentFailed)

	assert.NoError(t, err)
	users.AssertNotCalled(t, "ApplySubscription", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, notifier.count())
}

func TestPaymentService_HandleWebhookEvent_NonTerminalRejected(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	svc, _ := newPaymentService(payments, users, nil)

	err := svc.HandleWebhookEvent(context.Background(), "ext-1", domain.PaymentPending)

	assert.ErrorIs(t, err, domain.ErrPayloadInvalid)
	payments.AssertNotCalled(t, "MarkTerminal", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleStarsPayment(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	payload, err := BuildStarsPayload(domain.TierPremium)
	assert.NoError(t, err)

	p := testutil.NewTestPayment(123, domain.ProviderStars, "charge-1", domain.TierPremium)

	payments.On("CreateIfAbsent", mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Provider == domain.ProviderStars &&
			p.ExternalID == "charge-1" &&
			p.Tier == domain.TierPremium &&
			p.Status == domain.PaymentPending
	})).Return(true, nil)
	payments.On("MarkTerminal", domain.ProviderStars, "charge-1", domain.PaymentSucceeded).
		Return(true, nil)
	payments.On("GetByExternal", domain.ProviderStars, "charge-1").Return(p, nil)
	users.On("ApplySubscription", int64(123), domain.TierPremium, mock.Anything).Return(nil)
	users.On("AddBonusPoints", int64(123), 50).Return(nil)

	svc, notifier := newPaymentService(payments, users, nil)

	err = svc.HandleStarsPayment(context.Background(), 123, "charge-1", payload, 199, "XTR")

	assert.NoError(t, err)
	users.AssertNumberOfCalls(t, "ApplySubscription", 1)
	users.AssertNumberOfCalls(t, "AddBonusPoints", 1)
	assert.Equal(t, 1, notifier.count())
}

func TestPaymentService_HandleStarsPayment_RedeliveryIsNoop(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	payload, err := BuildStarsPayload(domain.TierBasic)
	assert.NoError(t, err)

	// The row already exists and is already terminal.
	payments.On("CreateIfAbsent", mock.Anything).Return(false, nil)
	payments.On("MarkTerminal", domain.ProviderStars, "charge-1", domain.PaymentSucceeded).
		Return(false, nil)

	svc, notifier := newPaymentService(payments, users, nil)

	err = svc.HandleStarsPayment(context.Background(), 123, "charge-1", payload, 99, "XTR")

	assert.NoError(t, err)
	users.AssertNotCalled(t, "ApplySubscription", mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "AddBonusPoints", mock.Anything, mock.Anything)
	assert.Zero(t, notifier.count())
}

func TestPaymentService_HandleStarsPayment_BadPayload(t *testing.T) {
	tests := []struct {
		name     string
		chargeID string
		payload  string
	}{
		{"empty charge id", "", `{"tier":"basic","nonce":"n"}`},
		{"malformed json", "charge-1", "not json"},
		{"missing tier", "charge-1", `{"nonce":"n"}`},
		{"unpurchasable tier", "charge-1", `{"tier":"free","nonce":"n"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(testutil.MockPaymentRepository)
			users := new(testutil.MockUserRepository)

			svc, _ := newPaymentService(payments, users, nil)

			err := svc.HandleStarsPayment(context.Background(), 123, tt.chargeID, tt.payload, 99, "XTR")

			assert.ErrorIs(t, err, domain.ErrPayloadInvalid)
			payments.AssertNotCalled(t, "CreateIfAbsent", mock.Anything)
		})
	}
}

func TestPaymentService_ExpireStalePending(t *testing.T) {
	payments := new(testutil.MockPaymentRepository)
	users := new(testutil.MockUserRepository)

	payments.On("ExpirePendingBefore", mock.MatchedBy(func(cutoff time.Time) bool {
		return cutoff.Before(time.Now())
	})).Return(int64(2), nil)

	svc, _ := newPaymentService(payments, users, nil)

	n, err := svc.ExpireStalePending(context.Background(), 24*time.Hour)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	payments.AssertExpectations(t)
}
