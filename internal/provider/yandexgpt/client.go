// Package yandexgpt is a thin client for the YandexGPT completion API,
// the generation collaborator behind every content flow.
package yandexgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
)

const apiURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// systemPrompts select the assistant persona per content kind
var systemPrompts = map[domain.ContentKind]string{
	domain.KindPost:    "Ты профессиональный копирайтер для соцсетей. Дай структурированный пост с эмодзи и мягким CTA.",
	domain.KindCaption: "Ты эксперт по подписям. Дай 2 версии (формальная/неформальная) + хештеги.",
	domain.KindStory:   "Ты сторителлер. Сгенерируй сценарий сторис в 5-7 пунктов + вопросы для вовлечения.",
	domain.KindIdeas:   "Ты генератор идей. Дай 10 идей контента, разнообразных по формату.",
	domain.KindStyle:   "Ты анализируешь стиль автора. Коротко опиши стиль (3-5 предложений) и ключевые приемы.",
}

// Client talks to the YandexGPT API
type Client struct {
	apiKey   string
	folderID string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a YandexGPT client with a fixed request timeout
func NewClient(apiKey, folderID string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		apiKey:   apiKey,
		folderID: folderID,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   string  `json:"maxTokens"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

// Generate produces text for the prompt, or an empty string with an error
// when the provider has no result. The caller decides about retries; a
// non-2xx status or timeout is reported as domain.ErrProviderUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string, kind domain.ContentKind) (string, error) {
	system, ok := systemPrompts[kind]
	if !ok {
		system = systemPrompts[domain.KindPost]
	}

	body, err := json.Marshal(completionRequest{
		ModelURI: fmt.Sprintf("gpt://%s/yandexgpt/latest", c.folderID),
		CompletionOptions: completionOptions{
			Temperature: 0.7,
			MaxTokens:   "1500",
		},
		Messages: []message{
			{Role: "system", Text: system},
			{Role: "user", Text: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("YandexGPT request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.Error("YandexGPT returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return "", fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if len(parsed.Result.Alternatives) == 0 || parsed.Result.Alternatives[0].Message.Text == "" {
		return "", domain.ErrEmptyResult
	}

	return parsed.Result.Alternatives[0].Message.Text, nil
}
