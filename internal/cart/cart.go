package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzastock/backend/pkg/db/models"
)

// Cart is an explicit value keyed by an opaque session token. All mutations
// return a new value; nothing here touches storage.
type Cart struct {
	Items []Item `json:"items"`
}

// Item is one requested line in a cart.
type Item struct {
	SKUID uuid.UUID `json:"sku_id"`
	Qty   int       `json:"qty"`
	Note  string    `json:"note,omitempty"`
}

// Add merges qty into an existing line or appends a new one. Non-positive qty
// leaves the cart unchanged.
func Add(c Cart, skuID uuid.UUID, qty int, note string) Cart {
	if qty <= 0 {
		return c
	}
	next := clone(c)
	for i, item := range next.Items {
		if item.SKUID == skuID {
			next.Items[i].Qty += qty
			if note != "" {
				next.Items[i].Note = note
			}
			return next
		}
	}
	next.Items = append(next.Items, Item{SKUID: skuID, Qty: qty, Note: note})
	return next
}

// Update sets a line's qty outright. Qty zero or less removes the line.
func Update(c Cart, skuID uuid.UUID, qty int) Cart {
	if qty <= 0 {
		return Remove(c, skuID)
	}
	next := clone(c)
	for i, item := range next.Items {
		if item.SKUID == skuID {
			next.Items[i].Qty = qty
			return next
		}
	}
	next.Items = append(next.Items, Item{SKUID: skuID, Qty: qty})
	return next
}

// Remove drops a line.
func Remove(c Cart, skuID uuid.UUID) Cart {
	next := Cart{Items: make([]Item, 0, len(c.Items))}
	for _, item := range c.Items {
		if item.SKUID != skuID {
			next.Items = append(next.Items, item)
		}
	}
	return next
}

// Clear empties the cart.
func Clear(Cart) Cart {
	return Cart{}
}

// QuoteLine is one priced cart line.
type QuoteLine struct {
	SKUID     uuid.UUID       `json:"sku_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Note      string          `json:"note,omitempty"`
}

// QuoteResult is the priced view of a cart.
type QuoteResult struct {
	Lines     []QuoteLine     `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Quote prices the cart against the provided catalog slice. Lines whose SKU is
// missing or deactivated are skipped silently; a stale cart should never block
// checkout of the rest.
func Quote(c Cart, skus map[uuid.UUID]models.SKU, taxRate decimal.Decimal) QuoteResult {
	result := QuoteResult{
		Lines:    make([]QuoteLine, 0, len(c.Items)),
		Subtotal: decimal.Zero,
	}
	for _, item := range c.Items {
		sku, ok := skus[item.SKUID]
		if !ok || !sku.IsActive {
			continue
		}
		lineTotal := sku.Price.Mul(decimal.NewFromInt(int64(item.Qty))).Round(2)
		result.Lines = append(result.Lines, QuoteLine{
			SKUID:     sku.ID,
			Name:      sku.Name,
			Qty:       item.Qty,
			UnitPrice: sku.Price,
			LineTotal: lineTotal,
			Note:      item.Note,
		})
		result.Subtotal = result.Subtotal.Add(lineTotal)
		result.ItemCount += item.Qty
	}
	result.Subtotal = result.Subtotal.Round(2)
	result.Tax = result.Subtotal.Mul(taxRate).Round(2)
	result.Total = result.Subtotal.Add(result.Tax)
	return result
}

// SKUIDs lists the distinct SKU ids referenced by the cart.
func (c Cart) SKUIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.SKUID]; ok {
			continue
		}
		seen[item.SKUID] = struct{}{}
		ids = append(ids, item.SKUID)
	}
	return ids
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func clone(c Cart) Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
