package controllers

import (
	"net/http"

	"github.com/pizzastock/backend/api/responses"
	"github.com/pizzastock/backend/api/validators"
	paymentsvc "github.com/pizzastock/backend/internal/payments"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/types"
)

// InitiatePayment opens a gateway attempt for a pending online order.
func InitiatePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDString(payload.OrderID, "invalid order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Initiate(r.Context(), orderID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentCallback settles a processing attempt. The simulate endpoint feeds
// the same handler in dev.
func PaymentCallback(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := parseIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentCallbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Callback(r.Context(), paymentID, payload.Outcome, types.JSONMap(payload.GatewayResponse))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// GetPayment fetches one attempt by id.
func GetPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := parseIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// ListOrderPayments lists all attempts against one order.
func ListOrderPayments(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payments)
	}
}

type initiatePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Method  string `json:"method" validate:"required"`
}

type paymentCallbackRequest struct {
	Outcome         string         `json:"outcome" validate:"required,oneof=success failed"`
	GatewayResponse map[string]any `json:"gateway_response,omitempty"`
}
