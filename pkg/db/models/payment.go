package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/enums"
	"github.com/pizzastock/backend/pkg/types"
)

// Payment is one payment attempt against an order, with its own status
// independent of the order's lifecycle status.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	ReferenceNumber string              `gorm:"column:reference_number;uniqueIndex;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	GatewayResponse types.JSONMap       `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
