package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	ordersvc "github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/pagination"
)

// CreateOrder places an order with snapshotted prices.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder fetches one order with items and payment attempts.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// GetOrderByNumber looks an order up by its customer-facing number.
func GetOrderByNumber(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
		if number == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "order number required"))
			return
		}

		order, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// ListOrders pages through orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ordersvc.ListFilter{Page: pagination.FromRequest(r)}

		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.BranchID = branchID

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			filter.Status = &status
		}

		orders, total, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listEnvelope{
			Items:  orders,
			Total:  total,
			Limit:  filter.Page.Limit,
			Offset: filter.Page.Offset,
		})
	}
}

// MarkOrderPaid settles a pending order at the counter. Online settlements
// arrive through the payment callback instead.
func MarkOrderPaid(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markPaidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.MarkPaidInput{
			Reference: validators.SanitizeString(payload.Reference, 64),
			ActorID:   actorUUID(r.Context()),
		}
		if payload.PaymentMethod != "" {
			method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = &method
		}

		order, err := svc.MarkPaid(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// UpdateOrderStatus advances an order through the fulfillment chain.
func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, next, actorUUID(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels a pending or paid order.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, validators.SanitizeString(payload.Reason, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type createOrderRequest struct {
	BranchID      string                   `json:"branch_id" validate:"required,uuid"`
	Items         []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string                   `json:"payment_method" validate:"required"`
	CustomerName  string                   `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerPhone string                   `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	TableNumber   string                   `json:"table_number,omitempty" validate:"omitempty,max=16"`
	Notes         string                   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type createOrderItemRequest struct {
	SKUID string `json:"sku_id" validate:"required,uuid"`
	Qty   int    `json:"qty" validate:"required,min=1"`
	Note  string `json:"note,omitempty" validate:"omitempty,max=255"`
}

func (r createOrderRequest) toInput() (ordersvc.CreateOrderInput, error) {
	branchID, err := uuid.Parse(r.BranchID)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch id")
	}

	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	items := make([]ordersvc.CreateOrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		skuID, err := uuid.Parse(item.SKUID)
		if err != nil {
			return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku id")
		}
		items = append(items, ordersvc.CreateOrderItemInput{
			SKUID: skuID,
			Qty:   item.Qty,
			Note:  validators.SanitizeString(item.Note, 255),
		})
	}

	return ordersvc.CreateOrderInput{
		BranchID:      branchID,
		Items:         items,
		PaymentMethod: method,
		CustomerName:  validators.SanitizeString(r.CustomerName, 120),
		CustomerPhone: validators.SanitizeString(r.CustomerPhone, 32),
		TableNumber:   validators.SanitizeString(r.TableNumber, 16),
		Notes:         validators.SanitizeString(r.Notes, 500),
	}, nil
}

type markPaidRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
	Reference     string `json:"reference,omitempty" validate:"omitempty,max=64"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=255"`
}
