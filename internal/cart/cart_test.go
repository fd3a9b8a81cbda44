package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pizzastock/backend/pkg/db/models"
)

var taxRate = decimal.RequireFromString("0.12")

func TestAddMergesExistingLine(t *testing.T) {
	t.Parallel()

	skuID := uuid.New()
	c := Add(Cart{}, skuID, 2, "")
	c = Add(c, skuID, 3, "extra cheese")

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Qty)
	assert.Equal(t, "extra cheese", c.Items[0].Note)

	// Mutations never alias the input value.
	before := Add(Cart{}, skuID, 1, "")
	_ = Add(before, skuID, 9, "")
	assert.Equal(t, 1, before.Items[0].Qty)
}

func TestAddIgnoresNonPositiveQty(t *testing.T) {
	t.Parallel()

	c := Add(Cart{}, uuid.New(), 0, "")
	assert.True(t, c.IsEmpty())
	c = Add(c, uuid.New(), -2, "")
	assert.True(t, c.IsEmpty())
}

func TestUpdateAndRemove(t *testing.T) {
	t.Parallel()

	skuA := uuid.New()
	skuB := uuid.New()
	c := Add(Add(Cart{}, skuA, 2, ""), skuB, 1, "")

	c = Update(c, skuA, 7)
	assert.Equal(t, 7, c.Items[0].Qty)

	// Zero qty removes the line.
	c = Update(c, skuA, 0)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, skuB, c.Items[0].SKUID)

	c = Remove(c, skuB)
	assert.True(t, c.IsEmpty())

	assert.True(t, Clear(Add(Cart{}, skuA, 3, "")).IsEmpty())
}

func TestQuoteComputesTotals(t *testing.T) {
	t.Parallel()

	pizza := models.SKU{ID: uuid.New(), Name: "Pepperoni", Price: decimal.NewFromFloat(299.00), IsActive: true}
	drink := models.SKU{ID: uuid.New(), Name: "Cola", Price: decimal.NewFromFloat(99.00), IsActive: true}

	c := Add(Add(Cart{}, pizza.ID, 2, ""), drink.ID, 1, "")
	result := Quote(c, map[uuid.UUID]models.SKU{pizza.ID: pizza, drink.ID: drink}, taxRate)

	assert.Equal(t, "697.00", result.Subtotal.StringFixed(2))
	assert.Equal(t, "83.64", result.Tax.StringFixed(2))
	assert.Equal(t, "780.64", result.Total.StringFixed(2))
	assert.Equal(t, 3, result.ItemCount)
	assert.Len(t, result.Lines, 2)
	assert.Equal(t, "598.00", result.Lines[0].LineTotal.StringFixed(2))
}

func TestQuoteSkipsMissingAndInactiveSKUs(t *testing.T) {
	t.Parallel()

	active := models.SKU{ID: uuid.New(), Name: "Pepperoni", Price: decimal.NewFromFloat(299.00), IsActive: true}
	retired := models.SKU{ID: uuid.New(), Name: "Old Special", Price: decimal.NewFromFloat(199.00), IsActive: false}
	ghost := uuid.New()

	c := Add(Add(Add(Cart{}, active.ID, 1, ""), retired.ID, 2, ""), ghost, 4, "")
	result := Quote(c, map[uuid.UUID]models.SKU{active.ID: active, retired.ID: retired}, taxRate)

	assert.Len(t, result.Lines, 1)
	assert.Equal(t, active.ID, result.Lines[0].SKUID)
	assert.Equal(t, 1, result.ItemCount)
	assert.Equal(t, "299.00", result.Subtotal.StringFixed(2))
}

func TestQuoteEmptyCart(t *testing.T) {
	t.Parallel()

	result := Quote(Cart{}, nil, taxRate)
	assert.Empty(t, result.Lines)
	assert.Equal(t, "0.00", result.Total.StringFixed(2))
	assert.Zero(t, result.ItemCount)
}
