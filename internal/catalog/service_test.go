package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db/models"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Branch{}, &models.SKU{}))
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateBranchNormalizesCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	branch, err := svc.CreateBranch(ctx, CreateBranchInput{Name: "Makati", Code: " mkt-01 "})
	require.NoError(t, err)
	assert.Equal(t, "MKT-01", branch.Code)
	assert.True(t, branch.IsActive)
	assert.NotEqual(t, uuid.Nil, branch.ID)
}

func TestCreateBranchDuplicateCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBranch(ctx, CreateBranchInput{Name: "Makati", Code: "MKT-01"})
	require.NoError(t, err)

	_, err = svc.CreateBranch(ctx, CreateBranchInput{Name: "Makati Two", Code: "MKT-01"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestDeactivateBranchKeepsRow(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	branch, err := svc.CreateBranch(ctx, CreateBranchInput{Name: "Pasig", Code: "PSG-01"})
	require.NoError(t, err)

	deactivated, err := svc.DeactivateBranch(ctx, branch.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	// Deactivation twice is a no-op.
	again, err := svc.DeactivateBranch(ctx, branch.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	var count int64
	require.NoError(t, conn.Model(&models.Branch{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetBranchNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.GetBranch(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateSKURejectsBadPrice(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSKU(ctx, CreateSKUInput{Name: "Pepperoni", Category: "pizza", Price: decimal.Zero})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.CreateSKU(ctx, CreateSKUInput{Name: "Pepperoni", Category: "pizza", Price: decimal.NewFromFloat(-5)})
	require.Error(t, err)
}

func TestUpdateSKUPartialFields(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	sku, err := svc.CreateSKU(ctx, CreateSKUInput{
		Name:     "Hawaiian",
		Category: "pizza",
		Price:    decimal.NewFromFloat(299.00),
	})
	require.NoError(t, err)

	newPrice := decimal.NewFromFloat(319.505)
	updated, err := svc.UpdateSKU(ctx, sku.ID, UpdateSKUInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "319.51", updated.Price.StringFixed(2))
	assert.Equal(t, "Hawaiian", updated.Name)

	inactive := false
	updated, err = svc.UpdateSKU(ctx, sku.ID, UpdateSKUInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestListSKUsFiltersAndCounts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, seed := range []CreateSKUInput{
		{Name: "Pepperoni", Category: "pizza", Price: decimal.NewFromFloat(299)},
		{Name: "Hawaiian", Category: "pizza", Price: decimal.NewFromFloat(289)},
		{Name: "Cola", Category: "drinks", Price: decimal.NewFromFloat(49)},
	} {
		_, err := svc.CreateSKU(ctx, seed)
		require.NoError(t, err)
	}

	skus, total, err := svc.ListSKUs(ctx, "pizza", true, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, skus, 2)
	assert.Equal(t, "Hawaiian", skus[0].Name)

	skus, total, err = svc.ListSKUs(ctx, "", true, pagination.Page{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, skus, 1)
}
