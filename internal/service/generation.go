package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
	"contentgpt/internal/repository"
	"contentgpt/internal/retrypolicy"
)

// Generator is the external generation collaborator
type Generator interface {
	Generate(ctx context.Context, prompt string, kind domain.ContentKind) (string, error)
}

// GenerationService orchestrates one generation: re-validate quota, call the
// provider, and only then commit the consumption and persist the artifact
type GenerationService struct {
	gate      *QuotaService
	users     repository.UserRepository
	content   repository.ContentRepository
	generator Generator
	transient func(error) bool
	logger    *zap.Logger
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	gate *QuotaService,
	users repository.UserRepository,
	content repository.ContentRepository,
	generator Generator,
	transient func(error) bool,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		gate:      gate,
		users:     users,
		content:   content,
		generator: generator,
		transient: transient,
		logger:    logger,
	}
}

// Run produces content for the prompt. Ordering matters:
//
//  1. re-check the allowance without consuming — time has passed since the
//     flow-entry pre-check and concurrent actions may have spent it;
//  2. call the generator; a failed or empty generation consumes nothing;
//  3. atomically consume — a denial here means the allowance raced away
//     mid-flow and is reported as ErrQuotaRaced, distinct from being out of
//     quota at entry;
//  4. persist the artifact to history.
func (s *GenerationService) Run(ctx context.Context, userID int64, kind domain.ContentKind, prompt string) (string, error) {
	st, err := s.gate.Check(ctx, userID)
	if err != nil {
		return "", err
	}
	if !st.Allowed {
		return "", fmt.Errorf("%w (%d/%d)", domain.ErrQuotaExceeded, st.Used, st.Limit)
	}

	prompt = s.withUserStyle(userID, kind, prompt)

	text, err := s.generate(ctx, prompt, kind)
	if err != nil {
		return "", err
	}

	st, err = s.gate.Consume(ctx, userID)
	if err != nil {
		return "", err
	}
	if !st.Allowed {
		return "", fmt.Errorf("%w (%d/%d)", domain.ErrQuotaRaced, st.Used, st.Limit)
	}

	if err := s.content.SaveGeneration(userID, kind, prompt, text); err != nil {
		// The user already paid for this result; history is best-effort.
		s.logger.Error("Failed to persist generation history",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
	}

	return text, nil
}

// AnalyzeStyle runs the style-analysis flow and stores the result on the
// user so later prompts can reference it
func (s *GenerationService) AnalyzeStyle(ctx context.Context, userID int64, examples string) (string, error) {
	prompt := "Проанализируй стиль автора по примерам.\n" +
		"Скажи: тон, структура, длина, любимые приемы, 3-5 характерных фраз.\n" +
		"Ответ: 3-5 предложений + 5 буллетов.\n\n" +
		"ПРИМЕРЫ:\n" + examples

	style, err := s.Run(ctx, userID, domain.KindStyle, prompt)
	if err != nil {
		return "", err
	}

	err = retrypolicy.Do(ctx, s.transient, func() error {
		return s.users.SaveStyle(userID, style)
	})
	if err != nil {
		s.logger.Error("Failed to save user style", zap.Error(err), zap.Int64("user_id", userID))
		return style, err
	}

	return style, nil
}

// Save keeps an artifact in the user's saved list
func (s *GenerationService) Save(userID int64, kind domain.ContentKind, prompt, content string) error {
	return s.content.SaveContent(userID, kind, prompt, content)
}

// Recent returns the user's latest saved artifacts, newest first
func (s *GenerationService) Recent(userID int64, limit int) ([]domain.SavedContent, error) {
	return s.content.RecentSaved(userID, limit)
}

// generate calls the provider under the shared policy: only provider
// unavailability is retried, an empty result never is
func (s *GenerationService) generate(ctx context.Context, prompt string, kind domain.ContentKind) (string, error) {
	var text string
	err := retrypolicy.Do(ctx, func(err error) bool {
		return errors.Is(err, domain.ErrProviderUnavailable)
	}, func() error {
		var gerr error
		text, gerr = s.generator.Generate(ctx, prompt, kind)
		return gerr
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyResult
	}
	return text, nil
}

// withUserStyle folds the stored author style into the prompt, except for
// style analysis itself
func (s *GenerationService) withUserStyle(userID int64, kind domain.ContentKind, prompt string) string {
	if kind == domain.KindStyle {
		return prompt
	}
	user, err := s.users.GetUser(userID)
	if err != nil || user.Style == "" {
		return prompt
	}
	return prompt + "\nСтиль автора (учти): " + user.Style + "\n"
}
