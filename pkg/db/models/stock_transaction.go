package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/enums"
)

// StockTransaction is one immutable ledger entry: a signed quantity delta
// against a (branch, SKU) pair. Rows are append-only; no code path updates or
// deletes them.
type StockTransaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BranchID  uuid.UUID             `gorm:"column:branch_id;type:uuid;not null;index:idx_stock_txn_pair"`
	SKUID     uuid.UUID             `gorm:"column:sku_id;type:uuid;not null;index:idx_stock_txn_pair"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	Kind      enums.TransactionKind `gorm:"column:kind;type:text;not null"`
	Note      string                `gorm:"column:note"`
	ActorID   *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime;index"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnDelete:RESTRICT"`
	SKU    *SKU    `gorm:"foreignKey:SKUID;constraint:OnDelete:RESTRICT"`
}

func (t *StockTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
