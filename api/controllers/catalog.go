package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	catalogsvc "github.com/pizzastock/backend/internal/catalog"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/pagination"
)

// CreateBranch registers a new sales location.
func CreateBranch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createBranchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.CreateBranch(r.Context(), catalogsvc.CreateBranchInput{
			Name:    validators.SanitizeString(payload.Name, 120),
			Code:    payload.Code,
			Address: validators.SanitizeString(payload.Address, 255),
			Phone:   validators.SanitizeString(payload.Phone, 32),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, branch)
	}
}

// UpdateBranch mutates name, address or phone. Codes are immutable.
func UpdateBranch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBranchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.UpdateBranch(r.Context(), branchID, catalogsvc.UpdateBranchInput{
			Name:    payload.Name,
			Address: payload.Address,
			Phone:   payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branch)
	}
}

// DeactivateBranch retires a location without deleting its history.
func DeactivateBranch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.DeactivateBranch(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branch)
	}
}

// GetBranch fetches one branch by id.
func GetBranch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.GetBranch(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branch)
	}
}

// ListBranches lists locations, optionally only active ones.
func ListBranches(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := validators.ParseQueryBool(r, "active", false)

		branches, err := svc.ListBranches(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branches)
	}
}

// CreateSKU registers a sellable item.
func CreateSKU(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		sku, err := svc.CreateSKU(r.Context(), catalogsvc.CreateSKUInput{
			Name:        validators.SanitizeString(payload.Name, 120),
			Description: validators.SanitizeString(payload.Description, 1000),
			Category:    payload.Category,
			Price:       price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sku)
	}
}

// UpdateSKU mutates item fields, including reactivation.
func UpdateSKU(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skuID, err := parseIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalogsvc.UpdateSKUInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			IsActive:    payload.IsActive,
		}
		if payload.Price != nil {
			price, err := decimal.NewFromString(*payload.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
				return
			}
			input.Price = &price
		}

		sku, err := svc.UpdateSKU(r.Context(), skuID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sku)
	}
}

// DeactivateSKU pulls an item off the menu without deleting it.
func DeactivateSKU(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skuID, err := parseIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sku, err := svc.DeactivateSKU(r.Context(), skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sku)
	}
}

// GetSKU fetches one item by id.
func GetSKU(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skuID, err := parseIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sku, err := svc.GetSKU(r.Context(), skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sku)
	}
}

// ListSKUs pages through the catalog with optional category filter.
func ListSKUs(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := validators.SanitizeString(r.URL.Query().Get("category"), 64)
		activeOnly := validators.ParseQueryBool(r, "active", false)
		page := pagination.FromRequest(r)

		skus, total, err := svc.ListSKUs(r.Context(), category, activeOnly, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listEnvelope{Items: skus, Total: total, Limit: page.Limit, Offset: page.Offset})
	}
}

type listEnvelope struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type createBranchRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Code    string `json:"code" validate:"required,min=2,max=20"`
	Address string `json:"address,omitempty" validate:"omitempty,max=255"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type updateBranchRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type createSKURequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string `json:"category" validate:"required,min=2,max=64"`
	Price       string `json:"price" validate:"required"`
}

type updateSKURequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=2,max=64"`
	Price       *string `json:"price,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
