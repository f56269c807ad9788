// Package webhook serves the small HTTP surface: a health probe and the
// YooKassa payment notification endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
	"contentgpt/internal/provider/yookassa"
	"contentgpt/internal/service"
)

// maxBodySize bounds an inbound notification body
const maxBodySize = 64 << 10

// Verifier checks a webhook body against its signature
type Verifier interface {
	VerifySignature(body []byte, signature string) bool
}

// Server handles inbound provider notifications
type Server struct {
	payments *service.PaymentService
	verifier Verifier
	http     *http.Server
	logger   *zap.Logger
}

// NewServer builds the HTTP server on the given port. verifier may be nil
// when the card provider is not configured; the payment endpoint then
// rejects everything.
func NewServer(port string, payments *service.PaymentService, verifier Verifier, logger *zap.Logger) *Server {
	s := &Server{
		payments: payments,
		verifier: verifier,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/webhook/yookassa", s.handleYooKassa)

	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Webhook server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// notification is the subset of the YooKassa webhook body we act on
type notification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// handleYooKassa always answers 200 so the provider stops redelivering;
// reconciliation failures are recovered by the user-driven poll path and
// the stale-payment sweep, never by provider retries.
func (s *Server) handleYooKassa(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodPost {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.logger.Warn("Failed to read webhook body", zap.Error(err))
		return
	}

	if s.verifier == nil || !s.verifier.VerifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		s.logger.Warn("Webhook signature rejected", zap.String("remote", r.RemoteAddr))
		return
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil || n.Object.ID == "" {
		s.logger.Warn("Malformed webhook payload", zap.Error(err))
		return
	}

	var status domain.PaymentStatus
	switch n.Event {
	case "payment.succeeded":
		status = domain.PaymentSucceeded
	case "payment.canceled":
		status = domain.PaymentFailed
	default:
		status = yookassa.MapStatus(n.Object.Status)
	}
	if !status.IsTerminal() {
		return
	}

	if err := s.payments.HandleWebhookEvent(r.Context(), n.Object.ID, status); err != nil {
		s.logger.Error("Webhook reconciliation failed",
			zap.Error(err),
			zap.String("external_id", n.Object.ID),
			zap.String("event", n.Event),
		)
	}
}
