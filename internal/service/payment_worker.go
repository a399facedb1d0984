package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentExpiryWorker runs PaymentService.ExpireStale on a ticker.
type PaymentExpiryWorker struct {
	payments *PaymentService
	interval time.Duration
	logger   *zap.Logger
}

func NewPaymentExpiryWorker(payments *PaymentService, interval time.Duration, logger *zap.Logger) *PaymentExpiryWorker {
	return &PaymentExpiryWorker{
		payments: payments,
		interval: interval,
		logger:   logger,
	}
}

// Start sweeps on every tick until ctx is cancelled.
func (w *PaymentExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("payment expiry worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("payment expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PaymentExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.payments.ExpireStale(ctx)
	if err != nil {
		w.logger.Error("payment expiry sweep failed", zap.Int("expired", expired), zap.Error(err))
		return
	}
	if expired > 0 {
		w.logger.Info("expired stale payments", zap.Int("count", expired))
	}
}
