package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
)

type stubOrders struct {
	ordersvc.Service
	order      *models.Order
	err        error
	lastCreate ordersvc.CreateOrderInput
	lastCancel string
}

func (s *stubOrders) Create(_ context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	s.lastCreate = input
	return s.order, s.err
}

func (s *stubOrders) MarkPaid(context.Context, uuid.UUID, ordersvc.MarkPaidInput) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) Cancel(_ context.Context, _ uuid.UUID, reason string) (*models.Order, error) {
	s.lastCancel = reason
	return s.order, s.err
}

func TestCreateOrderSuccess(t *testing.T) {
	branchID := uuid.New()
	skuID := uuid.New()
	stub := &stubOrders{order: &models.Order{
		ID:          uuid.New(),
		OrderNumber: "202601151230459F3A",
		Status:      enums.OrderStatusPending,
	}}
	handler := CreateOrder(stub, nil)

	body := `{
		"branch_id": "` + branchID.String() + `",
		"payment_method": "gcash",
		"items": [{"sku_id": "` + skuID.String() + `", "qty": 2, "note": "extra cheese"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.lastCreate.PaymentMethod != enums.PaymentMethodGCash {
		t.Fatalf("unexpected payment method %q", stub.lastCreate.PaymentMethod)
	}
	if len(stub.lastCreate.Items) != 1 || stub.lastCreate.Items[0].Qty != 2 {
		t.Fatalf("unexpected items %+v", stub.lastCreate.Items)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != "202601151230459F3A" {
		t.Fatalf("unexpected order number %q", envelope.Data.OrderNumber)
	}
}

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	handler := CreateOrder(&stubOrders{}, nil)

	body := `{
		"branch_id": "` + uuid.NewString() + `",
		"payment_method": "bitcoin",
		"items": [{"sku_id": "` + uuid.NewString() + `", "qty": 1}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	handler := CreateOrder(&stubOrders{}, nil)

	body := `{"branch_id": "` + uuid.NewString() + `", "payment_method": "counter", "items": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkOrderPaidSurfacesStateConflict(t *testing.T) {
	stub := &stubOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be marked paid")}
	handler := MarkOrderPaid(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/pay", strings.NewReader(`{}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "order cannot be marked paid" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestCancelOrderPassesSanitizedReason(t *testing.T) {
	stub := &stubOrders{order: &models.Order{Status: enums.OrderStatusCancelled}}
	handler := CancelOrder(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/cancel",
		strings.NewReader(`{"reason": "  customer left  "}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.lastCancel != "customer left" {
		t.Fatalf("unexpected reason %q", stub.lastCancel)
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	handler := UpdateOrderStatus(&stubOrders{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/status",
		strings.NewReader(`{"status": "abandoned"}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
