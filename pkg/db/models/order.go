package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/enums"
)

// Order is one customer transaction. Totals are computed at creation from the
// snapshotted item prices and never re-derived from the catalog afterwards.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;uniqueIndex;not null"`
	BranchID    uuid.UUID `gorm:"column:branch_id;type:uuid;not null;index:idx_orders_branch_status"`

	CustomerName  string `gorm:"column:customer_name"`
	CustomerPhone string `gorm:"column:customer_phone"`
	TableNumber   string `gorm:"column:table_number"`

	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null"`

	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentReference string              `gorm:"column:payment_reference"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index:idx_orders_branch_status"`

	Notes string `gorm:"column:notes"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Branch   *Branch     `gorm:"foreignKey:BranchID;constraint:OnDelete:RESTRICT"`
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
