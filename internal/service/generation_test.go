package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"contentgpt/internal/domain"
	"contentgpt/internal/testutil"
)

func newGenerationService(
	users *testutil.MockUserRepository,
	quota *testutil.MockQuotaRepository,
	content *testutil.MockContentRepository,
	generator *mockGenerator,
) *GenerationService {
	gate := NewQuotaService(users, quota, 0, neverTransient, testutil.NewTestLogger())
	return NewGenerationService(gate, users, content, generator, neverTransient, testutil.NewTestLogger())
}

func TestGenerationService_Run(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(1, nil)
	generator.On("Generate", mock.Anything, mock.Anything, domain.KindPost).Return("готовый пост", nil)
	quota.On("TryConsume", int64(123), mock.Anything, 5).Return(2, true, nil)
	content.On("SaveGeneration", int64(123), domain.KindPost, mock.Anything, "готовый пост").Return(nil)

	svc := newGenerationService(users, quota, content, generator)

	text, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.NoError(t, err)
	assert.Equal(t, "готовый пост", text)
	content.AssertExpectations(t)
}

func TestGenerationService_Run_DeniedAtEntry(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(5, nil)

	svc := newGenerationService(users, quota, content, generator)

	_, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	// Nothing may be generated or consumed after a denial.
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	quota.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_Run_ProviderFailureConsumesNothing(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(0, nil)
	generator.On("Generate", mock.Anything, mock.Anything, domain.KindPost).
		Return("", domain.ErrProviderUnavailable)

	svc := newGenerationService(users, quota, content, generator)

	_, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	quota.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything, mock.Anything)
	content.AssertNotCalled(t, "SaveGeneration",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_Run_EmptyResultConsumesNothing(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(0, nil)
	generator.On("Generate", mock.Anything, mock.Anything, domain.KindPost).Return("   \n", nil)

	svc := newGenerationService(users, quota, content, generator)

	_, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	quota.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_Run_RacedConsume(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	// Allowance exists at entry but is gone by commit time.
	quota.On("UsedOn", int64(123), mock.Anything).Return(4, nil)
	generator.On("Generate", mock.Anything, mock.Anything, domain.KindPost).Return("пост", nil)
	quota.On("TryConsume", int64(123), mock.Anything, 5).Return(5, false, nil)

	svc := newGenerationService(users, quota, content, generator)

	_, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.ErrorIs(t, err, domain.ErrQuotaRaced)
	assert.NotErrorIs(t, err, domain.ErrQuotaExceeded)
	content.AssertNotCalled(t, "SaveGeneration",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_Run_HistoryFailureKeepsResult(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(0, nil)
	generator.On("Generate", mock.Anything, mock.Anything, domain.KindPost).Return("пост", nil)
	quota.On("TryConsume", int64(123), mock.Anything, 5).Return(1, true, nil)
	content.On("SaveGeneration", int64(123), domain.KindPost, mock.Anything, "пост").
		Return(assert.AnError)

	svc := newGenerationService(users, quota, content, generator)

	text, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.NoError(t, err)
	assert.Equal(t, "пост", text)
}

func TestGenerationService_Run_FoldsInUserStyle(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	user := testutil.NewTestUser(123, domain.TierFree, nil)
	user.Style = "короткие абзацы, ирония"
	users.On("GetUser", int64(123)).Return(user, nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(0, nil)
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "короткие абзацы, ирония")
	}), domain.KindPost).Return("пост", nil)
	quota.On("TryConsume", int64(123), mock.Anything, 5).Return(1, true, nil)
	content.On("SaveGeneration", int64(123), domain.KindPost, mock.Anything, "пост").Return(nil)

	svc := newGenerationService(users, quota, content, generator)

	_, err := svc.Run(context.Background(), 123, domain.KindPost, "напиши пост")

	assert.NoError(t, err)
	generator.AssertExpectations(t)
}

func TestGenerationService_AnalyzeStyle(t *testing.T) {
	users := new(testutil.MockUserRepository)
	quota := new(testutil.MockQuotaRepository)
	content := new(testutil.MockContentRepository)
	generator := new(mockGenerator)

	users.On("GetUser", int64(123)).Return(testutil.NewTestUser(123, domain.TierFree, nil), nil)
	quota.On("UsedOn", int64(123), mock.Anything).Return(0, nil)
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "пример поста")
	}), domain.KindStyle).Return("тон: дружелюбный", nil)
	quota.On("TryConsume", int64(123), mock.Anything, 5).Return(1, true, nil)
	content.On("SaveGeneration", int64(123), domain.KindStyle, mock.Anything, mock.Anything).Return(nil)
	users.On("SaveStyle", int64(123), "тон: дружелюбный").Return(nil)

	svc := newGenerationService(users, quota, content, generator)

	style, err := svc.AnalyzeStyle(context.Background(), 123, "пример поста")

	assert.NoError(t, err)
	assert.Equal(t, "тон: дружелюбный", style)
	users.AssertExpectations(t)
}
