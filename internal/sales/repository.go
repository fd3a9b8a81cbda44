package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/pagination"
)

// Repository owns sale and daily-sales persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateSale inserts one committed sale event.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// dailyAggregate is one grouped (branch, SKU) slice of a day's sales.
type dailyAggregate struct {
	BranchID         uuid.UUID
	SKUID            uuid.UUID `gorm:"column:sku_id"`
	TotalQuantity    int
	TotalAmount      decimal.Decimal
	AveragePrice     decimal.Decimal
	TransactionCount int
}

// AggregateRange groups sales in [from, to) by branch and SKU.
func (r *Repository) AggregateRange(ctx context.Context, from, to time.Time) ([]dailyAggregate, error) {
	var rows []dailyAggregate
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("branch_id, sku_id, SUM(quantity) AS total_quantity, SUM(total_amount) AS total_amount, AVG(unit_price) AS average_price, COUNT(*) AS transaction_count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("branch_id, sku_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindDailySales loads the rollup row for one key, if present.
func (r *Repository) FindDailySales(ctx context.Context, branchID, skuID uuid.UUID, date time.Time) (*models.DailySales, error) {
	var row models.DailySales
	err := r.db.WithContext(ctx).
		First(&row, "branch_id = ? AND sku_id = ? AND date = ?", branchID, skuID, date).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveDailySales persists a rollup row, insert or update.
func (r *Repository) SaveDailySales(ctx context.Context, row *models.DailySales) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// TopSellerRow is one reporting line of TopSellers.
type TopSellerRow struct {
	SKUID         uuid.UUID       `gorm:"column:sku_id" json:"sku_id"`
	SKUName       string          `gorm:"column:sku_name" json:"sku_name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// TopSellers ranks SKUs by quantity sold since the cutoff.
func (r *Repository) TopSellers(ctx context.Context, branchID *uuid.UUID, since time.Time, limit int) ([]TopSellerRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("sales.sku_id, skus.name AS sku_name, SUM(sales.quantity) AS total_quantity, SUM(sales.total_amount) AS total_amount").
		Joins("JOIN skus ON skus.id = sales.sku_id").
		Where("sales.created_at >= ?", since).
		Group("sales.sku_id, skus.name").
		Order("total_quantity DESC").
		Limit(limit)
	if branchID != nil {
		query = query.Where("sales.branch_id = ?", *branchID)
	}

	var rows []TopSellerRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PeriodFilter narrows ListSalesByPeriod results.
type PeriodFilter struct {
	BranchID *uuid.UUID
	SKUID    *uuid.UUID
	From     time.Time
	To       time.Time
	Page     pagination.Page
}

// ListSalesByPeriod pages through raw sale events, newest first.
func (r *Repository) ListSalesByPeriod(ctx context.Context, filter PeriodFilter) ([]models.Sale, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("created_at >= ? AND created_at < ?", filter.From, filter.To)
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.SKUID != nil {
		query = query.Where("sku_id = ?", *filter.SKUID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Sale
	err := query.
		Order("created_at DESC").
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
