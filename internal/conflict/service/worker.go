package service

import (
	"context"
	"log/slog"
	"time"
)

// Worker periodically reconciles the full log so conflicts caused by
// anything that bypassed the write-triggered detection still surface.
// Passes never overlap: the next tick waits for the previous pass.
type Worker struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewWorker constructs the reconciliation worker.
func NewWorker(service *Service, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{service: service, interval: interval, logger: logger}
}

// Run reconciles on every tick until the context is cancelled. A failed
// pass is logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.service.Reconcile(ctx); err != nil {
				w.logger.ErrorContext(ctx, "conflict reconciliation failed", "error", err)
			}
		}
	}
}
