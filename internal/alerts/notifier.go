package alerts

import (
	"context"
	"fmt"

	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/logger"
)

// Notifier delivers low-stock alerts. Email/SMS delivery lives outside this
// service; production wires an external implementation, everything else gets
// the logging one.
type Notifier interface {
	NotifyLowStock(ctx context.Context, items []ledger.LowStockItem) error
}

// LogNotifier groups low-stock rows per branch and emits one structured alert
// per branch.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier builds the logging notifier.
func NewLogNotifier(logg *logger.Logger) (*LogNotifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogNotifier{logg: logg}, nil
}

// NotifyLowStock writes one warn entry per affected branch.
func (n *LogNotifier) NotifyLowStock(ctx context.Context, items []ledger.LowStockItem) error {
	if len(items) == 0 {
		return nil
	}

	grouped := GroupByBranch(items)
	for _, group := range grouped {
		skus := make([]string, 0, len(group.Items))
		for _, item := range group.Items {
			skus = append(skus, fmt.Sprintf("%s (%d/%d)", item.SKUName, item.Quantity, item.SafetyStock))
		}
		branchCtx := n.logg.WithFields(ctx, map[string]any{
			"branch":    group.BranchCode,
			"sku_count": len(group.Items),
			"skus":      skus,
		})
		n.logg.Warn(branchCtx, "low stock alert")
	}
	return nil
}

// BranchGroup is the per-branch slice of a low-stock report.
type BranchGroup struct {
	BranchCode string
	BranchName string
	Items      []ledger.LowStockItem
}

// GroupByBranch buckets items per branch, preserving the detector's order.
func GroupByBranch(items []ledger.LowStockItem) []BranchGroup {
	var groups []BranchGroup
	index := map[string]int{}
	for _, item := range items {
		i, ok := index[item.BranchCode]
		if !ok {
			i = len(groups)
			index[item.BranchCode] = i
			groups = append(groups, BranchGroup{
				BranchCode: item.BranchCode,
				BranchName: item.BranchName,
			})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}
