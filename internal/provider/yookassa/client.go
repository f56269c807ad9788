// Package yookassa is a client for the YooKassa v3 payments API, the
// poll-style payment provider: we create a payment, the user pays through a
// confirmation URL, and we (or a webhook) learn the outcome later.
package yookassa

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contentgpt/internal/domain"
)

const apiBase = "https://api.yookassa.ru/v3"

// CreatedPayment is the provider's answer to a create request
type CreatedPayment struct {
	ExternalID      string
	ConfirmationURL string
}

// Client talks to the YooKassa API with shop credentials
type Client struct {
	shopID        string
	secretKey     string
	webhookSecret string
	baseURL       string
	http          *http.Client
	logger        *zap.Logger
}

// NewClient creates a YooKassa client with a fixed request timeout
func NewClient(shopID, secretKey, webhookSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		shopID:        shopID,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       apiBase,
		http:          &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type createRequest struct {
	Amount       amount            `json:"amount"`
	Confirmation confirmation      `json:"confirmation"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata"`
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type paymentResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Confirmation confirmation `json:"confirmation"`
}

// CreatePayment registers a payment and returns its reference plus the URL
// the user must open to pay. Each attempt carries a fresh Idempotence-Key.
func (c *Client) CreatePayment(ctx context.Context, value float64, currency, description, orderID string) (*CreatedPayment, error) {
	body, err := json.Marshal(createRequest{
		Amount:       amount{Value: fmt.Sprintf("%.2f", value), Currency: currency},
		Confirmation: confirmation{Type: "redirect", ReturnURL: "https://t.me"},
		Capture:      true,
		Description:  description,
		Metadata:     map[string]string{"order_id": orderID},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())
	req.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("YooKassa create request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.Error("YooKassa create returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if parsed.ID == "" || parsed.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("%w: incomplete create response", domain.ErrProviderUnavailable)
	}

	return &CreatedPayment{
		ExternalID:      parsed.ID,
		ConfirmationURL: parsed.Confirmation.ConfirmationURL,
	}, nil
}

// GetStatus polls the provider for the payment's current status, mapped to
// our lifecycle. waiting_for_capture counts as succeeded because capture is
// requested at creation time.
func (c *Client) GetStatus(ctx context.Context, externalID string) (domain.PaymentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+externalID, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("YooKassa status request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	return MapStatus(parsed.Status), nil
}

// MapStatus translates a provider status string into our payment lifecycle
func MapStatus(providerStatus string) domain.PaymentStatus {
	switch providerStatus {
	case "succeeded", "waiting_for_capture":
		return domain.PaymentSucceeded
	case "canceled":
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

// VerifySignature checks an inbound webhook body against its signature
// header using the configured webhook secret
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
