package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzastock/backend/pkg/db/models"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/redis"
)

// fakeKV stands in for the redis client in tests.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CartKey(token string) string {
	return "ps:cart:" + token
}

type fakeCatalog struct {
	skus map[uuid.UUID]models.SKU
}

func (f *fakeCatalog) FindSKUsByIDs(_ context.Context, ids []uuid.UUID) ([]models.SKU, error) {
	out := make([]models.SKU, 0, len(ids))
	for _, id := range ids {
		if sku, ok := f.skus[id]; ok {
			out = append(out, sku)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, skus ...models.SKU) (Service, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	store, err := NewStore(kv, time.Hour)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]models.SKU, len(skus))
	for _, sku := range skus {
		byID[sku.ID] = sku
	}
	svc, err := NewService(store, &fakeCatalog{skus: byID}, decimal.RequireFromString("0.12"))
	require.NoError(t, err)
	return svc, kv
}

func TestServiceRoundTripsSession(t *testing.T) {
	t.Parallel()

	pizza := models.SKU{ID: uuid.New(), Name: "Pepperoni", Price: decimal.NewFromFloat(299.00), IsActive: true}
	svc, _ := newTestService(t, pizza)
	ctx := context.Background()
	token := uuid.NewString()

	c, err := svc.AddItem(ctx, token, pizza.ID, 2, "")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	// A fresh read sees the persisted state.
	reloaded, err := svc.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, c, reloaded)

	quote, err := svc.Quote(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "598.00", quote.Subtotal.StringFixed(2))

	require.NoError(t, svc.Clear(ctx, token))
	emptied, err := svc.Get(ctx, token)
	require.NoError(t, err)
	assert.True(t, emptied.IsEmpty())
}

func TestServiceUnknownTokenIsEmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	c, err := svc.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestServiceRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestStoreDiscardsCorruptSession(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store, err := NewStore(kv, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, kv.CartKey("tok"), "{not json", 0))
	c, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}
