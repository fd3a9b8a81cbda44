package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is one committed unit-sale event, produced when an order is paid or by
// a direct point-of-sale quick sale. TotalAmount is computed at creation and
// never recomputed.
type Sale struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BranchID    uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index:idx_sales_branch_created"`
	SKUID       uuid.UUID       `gorm:"column:sku_id;type:uuid;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(8,2);not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null"`
	OrderID     *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	ActorID     *uuid.UUID      `gorm:"column:actor_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_sales_branch_created"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnDelete:RESTRICT"`
	SKU    *SKU    `gorm:"foreignKey:SKUID;constraint:OnDelete:RESTRICT"`
	Order  *Order  `gorm:"foreignKey:OrderID;constraint:OnDelete:SET NULL"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
