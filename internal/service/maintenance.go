package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"contentgpt/internal/domain"
	"contentgpt/internal/repository"
)

// MaintenanceService owns the periodic housekeeping: history retention and
// expiring payments nobody ever completed
type MaintenanceService struct {
	content  repository.ContentRepository
	payments *PaymentService
	logger   *zap.Logger
}

const (
	// historyRetention bounds the generation_history table
	historyRetention = 90 * 24 * time.Hour
	// pendingPaymentMaxAge is how long a payment may sit non-terminal
	// before it is expired
	pendingPaymentMaxAge = 24 * time.Hour
)

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(content repository.ContentRepository, payments *PaymentService, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		content:  content,
		payments: payments,
		logger:   logger,
	}
}

// RunOnce performs one maintenance pass
func (s *MaintenanceService) RunOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-historyRetention)
	if err := s.content.DeleteHistoryBefore(cutoff); err != nil {
		s.logger.Error("Failed to clean generation history", zap.Error(err))
		return err
	}

	if _, err := s.payments.ExpireStalePending(ctx, pendingPaymentMaxAge); err != nil {
		s.logger.Error("Failed to expire stale payments", zap.Error(err))
		return err
	}

	return nil
}

// Stats returns aggregate counters for the admin panel
func (s *MaintenanceService) Stats() (*domain.Stats, error) {
	return s.content.Stats()
}
