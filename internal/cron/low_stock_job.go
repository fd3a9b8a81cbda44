package cron

import (
	"context"
	"fmt"

	"github.com/pizzastock/backend/internal/alerts"
	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/logger"
)

// LowStockJob runs the detector across all branches and hands the findings to
// the notifier.
type LowStockJob struct {
	ledger   ledger.Service
	notifier alerts.Notifier
	logg     *logger.Logger
}

// NewLowStockJob builds the detector job.
func NewLowStockJob(ledgerSvc ledger.Service, notifier alerts.Notifier, logg *logger.Logger) (*LowStockJob, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LowStockJob{ledger: ledgerSvc, notifier: notifier, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *LowStockJob) Name() string { return "low-stock-alerts" }

// Run detects and notifies.
func (j *LowStockJob) Run(ctx context.Context) error {
	items, err := j.ledger.LowStock(ctx, nil)
	if err != nil {
		return fmt.Errorf("detecting low stock: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	if err := j.notifier.NotifyLowStock(ctx, items); err != nil {
		return fmt.Errorf("notifying low stock: %w", err)
	}

	ctx = j.logg.WithField(ctx, "items", len(items))
	j.logg.Info(ctx, "low stock alerts dispatched")
	return nil
}
