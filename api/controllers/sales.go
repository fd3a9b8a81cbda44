package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	salessvc "github.com/pizzastock/backend/internal/sales"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
)

// RecordQuickSale records a point-of-sale sale with no backing order. The Sale
// row and the ledger deduction commit together.
func RecordQuickSale(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quickSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branchID, err := parseUUIDString(payload.BranchID, "invalid branch id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := parseUUIDString(payload.SKUID, "invalid sku id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitPrice, err := decimal.NewFromString(payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
			return
		}

		sale, err := svc.RecordSale(r.Context(), salessvc.RecordSaleInput{
			BranchID:  branchID,
			SKUID:     skuID,
			Qty:       payload.Qty,
			UnitPrice: unitPrice,
			ActorID:   actorUUID(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

type quickSaleRequest struct {
	BranchID  string `json:"branch_id" validate:"required,uuid"`
	SKUID     string `json:"sku_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
	UnitPrice string `json:"unit_price" validate:"required"`
}
