package orders

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/internal/catalog"
	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/config"
	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
)

type fixture struct {
	svc    Service
	ledger ledger.Service
	conn   *gorm.DB
	branch *models.Branch
	pizza  *models.SKU
	drink  *models.SKU
}

func newFixture(t *testing.T, cfg config.OrdersConfig) *fixture {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Branch{},
		&models.SKU{},
		&models.InventoryRecord{},
		&models.StockTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Sale{},
		&models.DailySales{},
	))

	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	client := db.FromGorm(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client, logg)
	require.NoError(t, err)
	salesSvc, err := sales.NewService(sales.NewRepository(conn), client, ledgerSvc, logg)
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), client, catalogRepo, catalogRepo, salesSvc, ledgerSvc, cfg, logg)
	require.NoError(t, err)

	branch := &models.Branch{Name: "Makati", Code: "MKT-01", IsActive: true}
	require.NoError(t, conn.Create(branch).Error)
	pizza := &models.SKU{Name: "Pepperoni", Category: "pizza", Price: decimal.NewFromFloat(299.00), IsActive: true}
	require.NoError(t, conn.Create(pizza).Error)
	drink := &models.SKU{Name: "Cola", Category: "drinks", Price: decimal.NewFromFloat(99.00), IsActive: true}
	require.NoError(t, conn.Create(drink).Error)

	return &fixture{svc: svc, ledger: ledgerSvc, conn: conn, branch: branch, pizza: pizza, drink: drink}
}

func defaultConfig() config.OrdersConfig {
	return config.OrdersConfig{TaxRate: "0.12", PendingTTL: 2 * time.Hour}
}

func (f *fixture) restock(t *testing.T, sku *models.SKU, qty int) {
	t.Helper()
	_, err := f.ledger.Apply(context.Background(), ledger.ApplyInput{
		BranchID: f.branch.ID,
		SKUID:    sku.ID,
		Delta:    qty,
		Kind:     enums.TransactionKindRestock,
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, sku *models.SKU) int {
	t.Helper()
	var record models.InventoryRecord
	require.NoError(t, f.conn.First(&record, "branch_id = ? AND sku_id = ?", f.branch.ID, sku.ID).Error)
	return record.Quantity
}

func (f *fixture) createOrder(t *testing.T, items ...CreateOrderItemInput) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateOrderInput{
		BranchID:      f.branch.ID,
		Items:         items,
		PaymentMethod: enums.PaymentMethodCounter,
	})
	require.NoError(t, err)
	return order
}

var orderNumberPattern = regexp.MustCompile(`^\d{14}[0-9A-F]{4}$`)

func TestCreateComputesTotals(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	order := f.createOrder(t,
		CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 2},
		CreateOrderItemInput{SKUID: f.drink.ID, Qty: 1},
	)

	assert.Equal(t, "697.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "83.64", order.Tax.StringFixed(2))
	assert.Equal(t, "780.64", order.TotalAmount.StringFixed(2))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "299.00", order.Items[0].UnitPrice.StringFixed(2))
}

func TestCreateSnapshotsPrices(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 1})

	// A later catalog price change must not touch the captured line price.
	require.NoError(t, f.conn.Model(&models.SKU{}).
		Where("id = ?", f.pizza.ID).
		Update("price", decimal.NewFromFloat(999.00)).Error)

	reloaded, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "299.00", reloaded.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "334.88", reloaded.TotalAmount.StringFixed(2))
}

func TestCreateRejectsInactiveSKU(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	require.NoError(t, f.conn.Model(&models.SKU{}).
		Where("id = ?", f.pizza.ID).
		Update("is_active", false).Error)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BranchID:      f.branch.ID,
		Items:         []CreateOrderItemInput{{SKUID: f.pizza.ID, Qty: 1}},
		PaymentMethod: enums.PaymentMethodCounter,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateOrderInput{
		BranchID:      f.branch.ID,
		PaymentMethod: enums.PaymentMethodCounter,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.Create(ctx, CreateOrderInput{
		BranchID:      f.branch.ID,
		Items:         []CreateOrderItemInput{{SKUID: f.pizza.ID, Qty: 0}},
		PaymentMethod: enums.PaymentMethodCounter,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.Create(ctx, CreateOrderInput{
		BranchID:      uuid.New(),
		Items:         []CreateOrderItemInput{{SKUID: f.pizza.ID, Qty: 1}},
		PaymentMethod: enums.PaymentMethodCounter,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkPaidDeductsExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	f.restock(t, f.pizza, 50)

	order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 5})

	paid, err := f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{Reference: "REF-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "REF-1", paid.PaymentReference)
	assert.Equal(t, 45, f.quantity(t, f.pizza))

	var saleCount int64
	require.NoError(t, f.conn.Model(&models.Sale{}).
		Where("order_id = ?", order.ID).
		Count(&saleCount).Error)
	assert.EqualValues(t, 1, saleCount)

	// Second settlement attempt loses the CAS and deducts nothing.
	_, err = f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, 45, f.quantity(t, f.pizza))

	require.NoError(t, f.conn.Model(&models.Sale{}).
		Where("order_id = ?", order.ID).
		Count(&saleCount).Error)
	assert.EqualValues(t, 1, saleCount)

	rec, err := f.ledger.Reconcile(ctx, f.branch.ID, f.pizza.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestMarkPaidInsufficientStockAbortsWholePayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	f.restock(t, f.pizza, 10)
	f.restock(t, f.drink, 1)

	order := f.createOrder(t,
		CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 2},
		CreateOrderItemInput{SKUID: f.drink.ID, Qty: 3},
	)

	_, err := f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// Everything rolled back: still pending, no deductions, no sales.
	reloaded, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.Equal(t, 10, f.quantity(t, f.pizza))
	assert.Equal(t, 1, f.quantity(t, f.drink))

	var saleCount int64
	require.NoError(t, f.conn.Model(&models.Sale{}).Count(&saleCount).Error)
	assert.EqualValues(t, 0, saleCount)
}

func TestUpdateStatusFulfillmentChain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	f.restock(t, f.pizza, 10)

	order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 1})

	// Preparing before payment is rejected.
	_, err := f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPreparing, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
	require.NoError(t, err)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusCompleted,
	} {
		updated, err := f.svc.UpdateStatus(ctx, order.ID, next, nil)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	completed, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	// Terminal states accept nothing further.
	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPreparing, nil)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// Paid is not a staff transition.
	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid, nil)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCancelFromPendingAppendsNote(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 1})

	cancelled, err := f.svc.Cancel(ctx, order.ID, "customer left")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "[CANCELLED] customer left")
}

func TestCancelRejectedFromReady(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	f.restock(t, f.pizza, 10)

	order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 1})
	_, err := f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPreparing, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusReady, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, order.ID, "too late")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelPaidRestockPolicy(t *testing.T) {
	t.Parallel()

	t.Run("default keeps stock deducted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, defaultConfig())
		ctx := context.Background()
		f.restock(t, f.pizza, 10)

		order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 4})
		_, err := f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, order.ID, "refund")
		require.NoError(t, err)
		assert.Equal(t, 6, f.quantity(t, f.pizza))
	})

	t.Run("policy on restores quantities", func(t *testing.T) {
		t.Parallel()

		cfg := defaultConfig()
		cfg.RestockOnCancel = true
		f := newFixture(t, cfg)
		ctx := context.Background()
		f.restock(t, f.pizza, 10)

		order := f.createOrder(t, CreateOrderItemInput{SKUID: f.pizza.ID, Qty: 4})
		_, err := f.svc.MarkPaid(ctx, order.ID, MarkPaidInput{})
		require.NoError(t, err)
		assert.Equal(t, 6, f.quantity(t, f.pizza))

		_, err = f.svc.Cancel(ctx, order.ID, "refund")
		require.NoError(t, err)
		assert.Equal(t, 10, f.quantity(t, f.pizza))

		var adjustment models.StockTransaction
		require.NoError(t, f.conn.
			Where("kind = ?", enums.TransactionKindAdjustment).
			First(&adjustment).Error)
		assert.Equal(t, 4, adjustment.Quantity)

		rec, err := f.ledger.Reconcile(ctx, f.branch.ID, f.pizza.ID)
		require.NoError(t, err)
		assert.True(t, rec.Consistent)
	})
}

func TestFindExpiredPendingFiltersMethodAndAge(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	now := time.Now().UTC()

	makeOrder := func(method enums.PaymentMethod, age time.Duration, status enums.OrderStatus) *models.Order {
		order, err := f.svc.Create(ctx, CreateOrderInput{
			BranchID:      f.branch.ID,
			Items:         []CreateOrderItemInput{{SKUID: f.pizza.ID, Qty: 1}},
			PaymentMethod: method,
		})
		require.NoError(t, err)
		require.NoError(t, f.conn.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{"created_at": now.Add(-age), "status": status}).Error)
		return order
	}

	stale := makeOrder(enums.PaymentMethodGCash, 3*time.Hour, enums.OrderStatusPending)
	makeOrder(enums.PaymentMethodGCash, time.Hour, enums.OrderStatusPending)       // fresh
	makeOrder(enums.PaymentMethodCounter, 5*time.Hour, enums.OrderStatusPending)   // counter exempt
	makeOrder(enums.PaymentMethodPayMaya, 5*time.Hour, enums.OrderStatusPaid)      // already settled

	expired, err := f.svc.FindExpiredPending(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
}
