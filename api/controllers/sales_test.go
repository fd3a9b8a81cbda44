package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzastock/backend/api/middleware"
	salessvc "github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/db/models"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
)

type stubSales struct {
	salessvc.Service
	sale      *models.Sale
	err       error
	lastInput salessvc.RecordSaleInput
}

func (s *stubSales) RecordSale(_ context.Context, input salessvc.RecordSaleInput) (*models.Sale, error) {
	s.lastInput = input
	return s.sale, s.err
}

func TestRecordQuickSaleSuccess(t *testing.T) {
	branchID := uuid.New()
	skuID := uuid.New()
	actorID := uuid.New()
	stub := &stubSales{sale: &models.Sale{
		ID:          uuid.New(),
		BranchID:    branchID,
		SKUID:       skuID,
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("299.00"),
		TotalAmount: decimal.RequireFromString("897.00"),
	}}
	handler := RecordQuickSale(stub, nil)

	body := `{"branch_id": "` + branchID.String() + `", "sku_id": "` + skuID.String() +
		`", "qty": 3, "unit_price": "299.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req = req.WithContext(middleware.WithActorID(req.Context(), actorID.String()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.lastInput.Qty != 3 {
		t.Fatalf("unexpected qty %d", stub.lastInput.Qty)
	}
	if !stub.lastInput.UnitPrice.Equal(decimal.RequireFromString("299.00")) {
		t.Fatalf("unexpected unit price %s", stub.lastInput.UnitPrice)
	}
	if stub.lastInput.ActorID == nil || *stub.lastInput.ActorID != actorID {
		t.Fatalf("actor id not forwarded")
	}
	if stub.lastInput.OrderID != nil {
		t.Fatalf("quick sale should not carry an order id")
	}
}

func TestRecordQuickSaleRejectsZeroQty(t *testing.T) {
	handler := RecordQuickSale(&stubSales{}, nil)

	body := `{"branch_id": "` + uuid.NewString() + `", "sku_id": "` + uuid.NewString() +
		`", "qty": 0, "unit_price": "299.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRecordQuickSaleRejectsBadPrice(t *testing.T) {
	handler := RecordQuickSale(&stubSales{}, nil)

	body := `{"branch_id": "` + uuid.NewString() + `", "sku_id": "` + uuid.NewString() +
		`", "qty": 1, "unit_price": "two hundred"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRecordQuickSaleSurfacesInsufficientStock(t *testing.T) {
	stub := &stubSales{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")}
	handler := RecordQuickSale(stub, nil)

	body := `{"branch_id": "` + uuid.NewString() + `", "sku_id": "` + uuid.NewString() +
		`", "qty": 50, "unit_price": "299.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
