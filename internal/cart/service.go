package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzastock/backend/pkg/db/models"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
)

// skuLoader resolves cart SKU ids against the live catalog.
type skuLoader interface {
	FindSKUsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SKU, error)
}

// Service ties the session store, the pure cart operations, and catalog
// pricing together for the HTTP surface.
type Service interface {
	Get(ctx context.Context, token string) (Cart, error)
	AddItem(ctx context.Context, token string, skuID uuid.UUID, qty int, note string) (Cart, error)
	UpdateItem(ctx context.Context, token string, skuID uuid.UUID, qty int) (Cart, error)
	RemoveItem(ctx context.Context, token string, skuID uuid.UUID) (Cart, error)
	Clear(ctx context.Context, token string) error
	Quote(ctx context.Context, token string) (QuoteResult, error)
}

type service struct {
	store   *Store
	skus    skuLoader
	taxRate decimal.Decimal
}

// NewService constructs a cart service instance.
func NewService(store *Store, skus skuLoader, taxRate decimal.Decimal) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if skus == nil {
		return nil, fmt.Errorf("sku loader required")
	}
	return &service{store: store, skus: skus, taxRate: taxRate}, nil
}

func (s *service) Get(ctx context.Context, token string) (Cart, error) {
	return s.load(ctx, token)
}

func (s *service) AddItem(ctx context.Context, token string, skuID uuid.UUID, qty int, note string) (Cart, error) {
	if qty <= 0 {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	current, err := s.load(ctx, token)
	if err != nil {
		return Cart{}, err
	}
	return s.save(ctx, token, Add(current, skuID, qty, note))
}

func (s *service) UpdateItem(ctx context.Context, token string, skuID uuid.UUID, qty int) (Cart, error) {
	current, err := s.load(ctx, token)
	if err != nil {
		return Cart{}, err
	}
	return s.save(ctx, token, Update(current, skuID, qty))
}

func (s *service) RemoveItem(ctx context.Context, token string, skuID uuid.UUID) (Cart, error) {
	current, err := s.load(ctx, token)
	if err != nil {
		return Cart{}, err
	}
	return s.save(ctx, token, Remove(current, skuID))
}

func (s *service) Clear(ctx context.Context, token string) error {
	if err := s.store.Clear(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart session")
	}
	return nil
}

func (s *service) Quote(ctx context.Context, token string) (QuoteResult, error) {
	current, err := s.load(ctx, token)
	if err != nil {
		return QuoteResult{}, err
	}

	skus, err := s.skus.FindSKUsByIDs(ctx, current.SKUIDs())
	if err != nil {
		return QuoteResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart skus")
	}
	byID := make(map[uuid.UUID]models.SKU, len(skus))
	for _, sku := range skus {
		byID[sku.ID] = sku
	}

	return Quote(current, byID, s.taxRate), nil
}

func (s *service) load(ctx context.Context, token string) (Cart, error) {
	if token == "" {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "session token is required")
	}
	current, err := s.store.Get(ctx, token)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart session")
	}
	return current, nil
}

func (s *service) save(ctx context.Context, token string, next Cart) (Cart, error) {
	if err := s.store.Save(ctx, token, next); err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart session")
	}
	return next, nil
}
