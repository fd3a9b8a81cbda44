package catalog

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/pagination"
)

// Service exposes branch and SKU management. Branches and SKUs are never hard
// deleted once referenced by ledger rows; they are deactivated instead.
type Service interface {
	CreateBranch(ctx context.Context, input CreateBranchInput) (*models.Branch, error)
	UpdateBranch(ctx context.Context, branchID uuid.UUID, input UpdateBranchInput) (*models.Branch, error)
	DeactivateBranch(ctx context.Context, branchID uuid.UUID) (*models.Branch, error)
	GetBranch(ctx context.Context, branchID uuid.UUID) (*models.Branch, error)
	ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error)

	CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error)
	UpdateSKU(ctx context.Context, skuID uuid.UUID, input UpdateSKUInput) (*models.SKU, error)
	DeactivateSKU(ctx context.Context, skuID uuid.UUID) (*models.SKU, error)
	GetSKU(ctx context.Context, skuID uuid.UUID) (*models.SKU, error)
	ListSKUs(ctx context.Context, category string, activeOnly bool, page pagination.Page) ([]models.SKU, int64, error)
}

// CreateBranchInput holds the validated payload to create a branch.
type CreateBranchInput struct {
	Name    string
	Code    string
	Address string
	Phone   string
}

// UpdateBranchInput holds optional mutation values for a branch. The code is
// immutable once assigned.
type UpdateBranchInput struct {
	Name    *string
	Address *string
	Phone   *string
}

// CreateSKUInput holds the validated payload to create a SKU.
type CreateSKUInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
}

// UpdateSKUInput holds optional mutation values for a SKU.
type UpdateSKUInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	IsActive    *bool
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateBranch(ctx context.Context, input CreateBranchInput) (*models.Branch, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}

	branch := &models.Branch{
		Name:     strings.TrimSpace(input.Name),
		Code:     code,
		Address:  input.Address,
		Phone:    input.Phone,
		IsActive: true,
	}
	created, err := s.repo.CreateBranch(ctx, branch)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("branch code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating branch")
	}
	return created, nil
}

func (s *service) UpdateBranch(ctx context.Context, branchID uuid.UUID, input UpdateBranchInput) (*models.Branch, error) {
	branch, err := s.loadBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name cannot be empty")
		}
		branch.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		branch.Address = *input.Address
	}
	if input.Phone != nil {
		branch.Phone = *input.Phone
	}

	updated, err := s.repo.UpdateBranch(ctx, branch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating branch")
	}
	return updated, nil
}

func (s *service) DeactivateBranch(ctx context.Context, branchID uuid.UUID) (*models.Branch, error) {
	branch, err := s.loadBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive {
		return branch, nil
	}

	branch.IsActive = false
	updated, err := s.repo.UpdateBranch(ctx, branch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating branch")
	}
	return updated, nil
}

func (s *service) GetBranch(ctx context.Context, branchID uuid.UUID) (*models.Branch, error) {
	return s.loadBranch(ctx, branchID)
}

func (s *service) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	branches, err := s.repo.ListBranches(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing branches")
	}
	return branches, nil
}

func (s *service) CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku category is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	sku := &models.SKU{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price.Round(2),
		IsActive:    true,
	}
	created, err := s.repo.CreateSKU(ctx, sku)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating sku")
	}
	return created, nil
}

func (s *service) UpdateSKU(ctx context.Context, skuID uuid.UUID, input UpdateSKUInput) (*models.SKU, error) {
	sku, err := s.loadSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku name cannot be empty")
		}
		sku.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		sku.Description = *input.Description
	}
	if input.Category != nil {
		if strings.TrimSpace(*input.Category) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku category cannot be empty")
		}
		sku.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		sku.Price = input.Price.Round(2)
	}
	if input.IsActive != nil {
		sku.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateSKU(ctx, sku)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating sku")
	}
	return updated, nil
}

func (s *service) DeactivateSKU(ctx context.Context, skuID uuid.UUID) (*models.SKU, error) {
	sku, err := s.loadSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if !sku.IsActive {
		return sku, nil
	}

	sku.IsActive = false
	updated, err := s.repo.UpdateSKU(ctx, sku)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating sku")
	}
	return updated, nil
}

func (s *service) GetSKU(ctx context.Context, skuID uuid.UUID) (*models.SKU, error) {
	return s.loadSKU(ctx, skuID)
}

func (s *service) ListSKUs(ctx context.Context, category string, activeOnly bool, page pagination.Page) ([]models.SKU, int64, error) {
	skus, total, err := s.repo.ListSKUs(ctx, ListSKUsFilter{
		Category:   category,
		ActiveOnly: activeOnly,
		Page:       page,
	})
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing skus")
	}
	return skus, total, nil
}

func (s *service) loadBranch(ctx context.Context, branchID uuid.UUID) (*models.Branch, error) {
	branch, err := s.repo.FindBranchByID(ctx, branchID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading branch")
	}
	return branch, nil
}

func (s *service) loadSKU(ctx context.Context, skuID uuid.UUID) (*models.SKU, error) {
	sku, err := s.repo.FindSKUByID(ctx, skuID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sku")
	}
	return sku, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.Round(2).Cmp(decimal.NewFromFloat(0.01)) < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01")
	}
	return nil
}
