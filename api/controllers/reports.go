package controllers

import (
	"net/http"
	"time"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	salessvc "github.com/pizzastock/backend/internal/sales"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/pagination"
)

// TopSellers ranks SKUs by quantity sold over a trailing window.
func TopSellers(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 30, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.TopSellers(r.Context(), branchID, days, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// SalesByPeriod pages through raw sale events inside a window.
func SalesByPeriod(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := salessvc.PeriodFilter{Page: pagination.FromRequest(r)}

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

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "from and to dates required"))
			return
		}
		filter.From = *from
		// Window end is exclusive of the following day.
		filter.To = to.AddDate(0, 0, 1)

		sales, total, err := svc.SalesByPeriod(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listEnvelope{
			Items:  sales,
			Total:  total,
			Limit:  filter.Page.Limit,
			Offset: filter.Page.Offset,
		})
	}
}

// AggregateDailySales triggers the rollup for one date on demand. The cron
// worker does the same thing for yesterday on schedule.
func AggregateDailySales(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := time.Now().UTC().AddDate(0, 0, -1)
		if date != nil {
			target = *date
		}

		count, err := svc.AggregateDaily(r.Context(), target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"date": target.Format("2006-01-02"),
			"rows": count,
		})
	}
}
