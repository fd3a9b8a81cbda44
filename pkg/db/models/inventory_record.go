package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultSafetyStock is the threshold assigned to records created lazily on
// their first quantity-affecting event.
const DefaultSafetyStock = 10

// InventoryRecord is the current quantity and safety-stock threshold for one
// (branch, SKU) pair. Exactly one row per pair, created lazily with quantity 0
// on the first quantity-affecting event. Quantity never goes below zero; the
// ledger of StockTransaction deltas must always sum to it.
type InventoryRecord struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BranchID      uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:idx_inventory_branch_sku"`
	SKUID         uuid.UUID  `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:idx_inventory_branch_sku"`
	Quantity      int        `gorm:"column:quantity;not null;default:0"`
	SafetyStock   int        `gorm:"column:safety_stock;not null;default:10"`
	LastRestocked *time.Time `gorm:"column:last_restocked"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnDelete:RESTRICT"`
	SKU    *SKU    `gorm:"foreignKey:SKUID;constraint:OnDelete:RESTRICT"`
}

func (r *InventoryRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether quantity has fallen below the safety threshold.
func (r InventoryRecord) IsLowStock() bool {
	return r.Quantity < r.SafetyStock
}

// StockStatus renders the human-facing state of this record.
func (r InventoryRecord) StockStatus() string {
	switch {
	case r.Quantity == 0:
		return "Out of Stock"
	case r.IsLowStock():
		return "Low Stock"
	default:
		return "In Stock"
	}
}
