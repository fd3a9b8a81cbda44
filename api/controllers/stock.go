package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	ledgersvc "github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/pagination"
)

// AdjustStock applies one signed movement against a (branch, SKU) pair.
func AdjustStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		skuID, err := uuid.Parse(payload.SKUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku id"))
			return
		}

		kind, err := enums.ParseTransactionKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction kind"))
			return
		}

		result, err := svc.Apply(r.Context(), ledgersvc.ApplyInput{
			BranchID: branchID,
			SKUID:    skuID,
			Delta:    payload.Delta,
			Kind:     kind,
			ActorID:  actorUUID(r.Context()),
			Note:     validators.SanitizeString(payload.Note, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// TransferStock moves quantity of one SKU between two branches atomically.
func TransferStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transferStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromID, err := uuid.Parse(payload.FromBranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from_branch_id"))
			return
		}
		toID, err := uuid.Parse(payload.ToBranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to_branch_id"))
			return
		}
		skuID, err := uuid.Parse(payload.SKUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku_id"))
			return
		}

		result, err := svc.Transfer(r.Context(), ledgersvc.TransferInput{
			FromBranchID: fromID,
			ToBranchID:   toID,
			SKUID:        skuID,
			Qty:          payload.Qty,
			ActorID:      actorUUID(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// LowStock lists records at or below their safety threshold.
func LowStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.LowStock(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// BranchStock lists all inventory records of one branch.
func BranchStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.BranchStock(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// ReconcileStock compares the ledger sum against the materialized quantity.
func ReconcileStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := parseIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Reconcile(r.Context(), branchID, skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// SetSafetyStock overrides the low-stock threshold for one record.
func SetSafetyStock(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := parseIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setSafetyStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetSafetyStock(r.Context(), branchID, skuID, payload.Threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// StockHistory pages through the movement ledger, newest first.
func StockHistory(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ledgersvc.HistoryFilter{Page: pagination.FromRequest(r)}

		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.BranchID = branchID

		skuID, err := validators.ParseQueryUUID(r, "sku_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SKUID = skuID

		if raw := r.URL.Query().Get("kind"); raw != "" {
			kind, err := enums.ParseTransactionKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction kind"))
				return
			}
			filter.Kind = &kind
		}

		since, err := validators.ParseQueryDate(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Since = since

		until, err := validators.ParseQueryDate(r, "until")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Until = until

		transactions, total, err := svc.History(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listEnvelope{
			Items:  transactions,
			Total:  total,
			Limit:  filter.Page.Limit,
			Offset: filter.Page.Offset,
		})
	}
}

type adjustStockRequest struct {
	SKUID string `json:"sku_id" validate:"required,uuid"`
	Delta int    `json:"delta" validate:"required"`
	Kind  string `json:"kind" validate:"required"`
	Note  string `json:"note,omitempty" validate:"omitempty,max=255"`
}

type transferStockRequest struct {
	FromBranchID string `json:"from_branch_id" validate:"required,uuid"`
	ToBranchID   string `json:"to_branch_id" validate:"required,uuid"`
	SKUID        string `json:"sku_id" validate:"required,uuid"`
	Qty          int    `json:"qty" validate:"required,min=1"`
}

type setSafetyStockRequest struct {
	Threshold int `json:"threshold" validate:"min=0"`
}
