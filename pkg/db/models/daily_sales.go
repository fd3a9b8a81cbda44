package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailySales is the derived per-day/per-SKU/per-branch rollup consumed by
// reporting and forecasting. Not a source of truth: regenerable from Sale
// rows for any date, any number of times, with identical results.
type DailySales struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BranchID         uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:idx_daily_sales_key"`
	SKUID            uuid.UUID       `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:idx_daily_sales_key"`
	Date             time.Time       `gorm:"column:date;type:date;not null;uniqueIndex:idx_daily_sales_key"`
	TotalQuantity    int             `gorm:"column:total_quantity;not null;default:0"`
	TotalAmount      decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AveragePrice     decimal.Decimal `gorm:"column:average_price;type:numeric(8,2);not null"`
	TransactionCount int             `gorm:"column:transaction_count;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailySales) TableName() string { return "daily_sales" }

func (d *DailySales) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
