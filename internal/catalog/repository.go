package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/pagination"
)

// Repository wires together branch and SKU persistence helpers.
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

// CreateBranch inserts a new branch row.
func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) (*models.Branch, error) {
	if err := r.db.WithContext(ctx).Create(branch).Error; err != nil {
		return nil, err
	}
	return branch, nil
}

// UpdateBranch saves an existing branch row.
func (r *Repository) UpdateBranch(ctx context.Context, branch *models.Branch) (*models.Branch, error) {
	if err := r.db.WithContext(ctx).Save(branch).Error; err != nil {
		return nil, err
	}
	return branch, nil
}

// FindBranchByID loads a branch without associations.
func (r *Repository) FindBranchByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// FindBranchByCode loads a branch by its business code.
func (r *Repository) FindBranchByCode(ctx context.Context, code string) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// ListBranches returns branches, optionally restricted to active ones.
func (r *Repository) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	query := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var branches []models.Branch
	if err := query.Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// CreateSKU inserts a new SKU row.
func (r *Repository) CreateSKU(ctx context.Context, sku *models.SKU) (*models.SKU, error) {
	if err := r.db.WithContext(ctx).Create(sku).Error; err != nil {
		return nil, err
	}
	return sku, nil
}

// UpdateSKU saves an existing SKU row.
func (r *Repository) UpdateSKU(ctx context.Context, sku *models.SKU) (*models.SKU, error) {
	if err := r.db.WithContext(ctx).Save(sku).Error; err != nil {
		return nil, err
	}
	return sku, nil
}

// FindSKUByID loads a SKU without associations.
func (r *Repository) FindSKUByID(ctx context.Context, id uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.db.WithContext(ctx).First(&sku, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

// FindSKUsByIDs loads the SKUs matching the provided ids. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (r *Repository) FindSKUsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SKU, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var skus []models.SKU
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// ListSKUsFilter narrows ListSKUs results.
type ListSKUsFilter struct {
	Category   string
	ActiveOnly bool
	Page       pagination.Page
}

// ListSKUs returns catalog items ordered by category then name.
func (r *Repository) ListSKUs(ctx context.Context, filter ListSKUsFilter) ([]models.SKU, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SKU{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var skus []models.SKU
	err := query.
		Order("category ASC, name ASC").
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset).
		Find(&skus).Error
	if err != nil {
		return nil, 0, err
	}
	return skus, total, nil
}
