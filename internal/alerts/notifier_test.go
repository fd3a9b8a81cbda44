package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/logger"
)

func TestGroupByBranch(t *testing.T) {
	t.Parallel()

	items := []ledger.LowStockItem{
		{BranchCode: "MKT-01", SKUName: "Pepperoni", Quantity: 2, SafetyStock: 10},
		{BranchCode: "MKT-01", SKUName: "Cola", Quantity: 0, SafetyStock: 24},
		{BranchCode: "PSG-01", SKUName: "Hawaiian", Quantity: 5, SafetyStock: 10},
	}

	groups := GroupByBranch(items)
	require.Len(t, groups, 2)
	assert.Equal(t, "MKT-01", groups[0].BranchCode)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "PSG-01", groups[1].BranchCode)
	assert.Len(t, groups[1].Items, 1)
}

func TestLogNotifierEmitsOneAlertPerBranch(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "alerts-test", Output: &buf})

	notifier, err := NewLogNotifier(logg)
	require.NoError(t, err)

	items := []ledger.LowStockItem{
		{BranchCode: "MKT-01", SKUName: "Pepperoni", Quantity: 2, SafetyStock: 10},
		{BranchCode: "MKT-01", SKUName: "Cola", Quantity: 0, SafetyStock: 24},
		{BranchCode: "PSG-01", SKUName: "Hawaiian", Quantity: 5, SafetyStock: 10},
	}
	require.NoError(t, notifier.NotifyLowStock(context.Background(), items))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "MKT-01", first["branch"])
	assert.EqualValues(t, 2, first["sku_count"])
	assert.Equal(t, "low stock alert", first["message"])
}

func TestLogNotifierNoItemsIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "alerts-test", Output: &buf})

	notifier, err := NewLogNotifier(logg)
	require.NoError(t, err)
	require.NoError(t, notifier.NotifyLowStock(context.Background(), nil))
	assert.Empty(t, buf.String())
}
