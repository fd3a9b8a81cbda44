package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/logger"
)

// DailySalesJob rebuilds yesterday's DailySales rollup. The aggregation is a
// replace-not-accumulate upsert, so re-running after a partial failure is
// harmless.
type DailySalesJob struct {
	sales sales.Service
	logg  *logger.Logger
}

// NewDailySalesJob builds the aggregation job.
func NewDailySalesJob(salesSvc sales.Service, logg *logger.Logger) (*DailySalesJob, error) {
	if salesSvc == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &DailySalesJob{sales: salesSvc, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *DailySalesJob) Name() string { return "daily-sales" }

// Run aggregates the previous UTC day.
func (j *DailySalesJob) Run(ctx context.Context) error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	count, err := j.sales.AggregateDaily(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("aggregating daily sales: %w", err)
	}

	ctx = j.logg.WithField(ctx, "rows", count)
	j.logg.Info(ctx, "daily sales rollup refreshed")
	return nil
}
