package ledger

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	"github.com/pizzastock/backend/pkg/pagination"
)

// Repository owns inventory record and stock transaction persistence.
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

// FindRecord loads the inventory record for a (branch, SKU) pair.
func (r *Repository) FindRecord(ctx context.Context, branchID, skuID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		First(&record, "branch_id = ? AND sku_id = ?", branchID, skuID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreateRecord returns the record for the pair, creating it with zero
// quantity on first touch. A create that loses a unique-index race falls back
// to reloading the winner's row.
func (r *Repository) GetOrCreateRecord(ctx context.Context, branchID, skuID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := r.FindRecord(ctx, branchID, skuID)
	if err == nil {
		return record, nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.InventoryRecord{
		BranchID:    branchID,
		SKUID:       skuID,
		Quantity:    0,
		SafetyStock: models.DefaultSafetyStock,
	}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return r.FindRecord(ctx, branchID, skuID)
		}
		return nil, err
	}
	return fresh, nil
}

// AdjustQuantity applies a signed delta guarded against going negative.
// Returns false without touching the row when the guard fails.
func (r *Repository) AdjustQuantity(ctx context.Context, recordID uuid.UUID, delta int, restockedAt *time.Time) (bool, error) {
	updates := map[string]any{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now().UTC(),
	}
	if restockedAt != nil {
		updates["last_restocked"] = *restockedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND quantity + ? >= 0", recordID, delta).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AppendTransaction inserts one immutable ledger entry.
func (r *Repository) AppendTransaction(ctx context.Context, txn *models.StockTransaction) (*models.StockTransaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// SumTransactions totals the signed deltas recorded for a pair.
func (r *Repository) SumTransactions(ctx context.Context, branchID, skuID uuid.UUID) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Where("branch_id = ? AND sku_id = ?", branchID, skuID).
		Select("SUM(quantity)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// ListLowStock returns records below their safety threshold, joined through
// branches so callers can group the result per branch.
func (r *Repository) ListLowStock(ctx context.Context, branchID *uuid.UUID) ([]models.InventoryRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Joins("JOIN branches ON branches.id = inventory_records.branch_id").
		Where("inventory_records.quantity < inventory_records.safety_stock").
		Where("branches.is_active = ?", true).
		Preload("Branch").
		Preload("SKU").
		Order("branches.code ASC, inventory_records.quantity ASC")
	if branchID != nil {
		query = query.Where("inventory_records.branch_id = ?", *branchID)
	}

	var records []models.InventoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecordsByBranch returns every inventory record for a branch.
func (r *Repository) ListRecordsByBranch(ctx context.Context, branchID uuid.UUID) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Preload("SKU").
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// HistoryFilter narrows ListTransactions results.
type HistoryFilter struct {
	BranchID *uuid.UUID
	SKUID    *uuid.UUID
	Kind     *enums.TransactionKind
	Since    *time.Time
	Until    *time.Time
	Page     pagination.Page
}

// ListTransactions pages through the ledger, newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter HistoryFilter) ([]models.StockTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockTransaction{})
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.SKUID != nil {
		query = query.Where("sku_id = ?", *filter.SKUID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at < ?", *filter.Until)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.StockTransaction
	err := query.
		Order("created_at DESC").
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SetSafetyStock updates the threshold for an existing record.
func (r *Repository) SetSafetyStock(ctx context.Context, recordID uuid.UUID, threshold int) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"safety_stock": threshold,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// BranchExists reports whether an active or inactive branch row exists.
func (r *Repository) BranchExists(ctx context.Context, branchID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("id = ?", branchID).
		Count(&count).Error
	return count > 0, err
}

// SKUExists reports whether a SKU row exists.
func (r *Repository) SKUExists(ctx context.Context, skuID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ?", skuID).
		Count(&count).Error
	return count > 0, err
}
