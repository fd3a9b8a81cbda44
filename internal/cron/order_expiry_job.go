package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/pkg/logger"
)

const expiryCancelReason = "payment window expired"

// OrderExpiryJob cancels pending online-payment orders whose payment window
// has lapsed. Counter orders wait for staff and are never swept. Safe to
// overlap live traffic: a customer settling concurrently wins the status CAS
// and the sweep just skips that order.
type OrderExpiryJob struct {
	orders orders.Service
	logg   *logger.Logger
}

// NewOrderExpiryJob builds the expiry sweeper.
func NewOrderExpiryJob(ordersSvc orders.Service, logg *logger.Logger) (*OrderExpiryJob, error) {
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrderExpiryJob{orders: ordersSvc, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *OrderExpiryJob) Name() string { return "order-expiry" }

// Run sweeps and cancels expired orders one by one so a single bad order
// cannot block the rest.
func (j *OrderExpiryJob) Run(ctx context.Context) error {
	expired, err := j.orders.FindExpiredPending(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finding expired orders: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	var errs error
	cancelled := 0
	for _, order := range expired {
		if _, err := j.orders.Cancel(ctx, order.ID, expiryCancelReason); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancelling order %s: %w", order.OrderNumber, err))
			continue
		}
		cancelled++
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"expired":   len(expired),
		"cancelled": cancelled,
	})
	j.logg.Info(ctx, "expired orders swept")

	return errs
}
