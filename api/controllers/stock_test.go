package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pizzastock/backend/api/middleware"
	ledgersvc "github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
)

type stubLedger struct {
	ledgersvc.Service
	result    *ledgersvc.ApplyResult
	items     []ledgersvc.LowStockItem
	err       error
	lastApply ledgersvc.ApplyInput
}

func (s *stubLedger) Apply(_ context.Context, input ledgersvc.ApplyInput) (*ledgersvc.ApplyResult, error) {
	s.lastApply = input
	return s.result, s.err
}

func (s *stubLedger) LowStock(context.Context, *uuid.UUID) ([]ledgersvc.LowStockItem, error) {
	return s.items, s.err
}

func TestAdjustStockSuccessCarriesActor(t *testing.T) {
	actorID := uuid.New()
	skuID := uuid.New()
	stub := &stubLedger{result: &ledgersvc.ApplyResult{
		Record: &models.InventoryRecord{Quantity: 60},
	}}
	handler := AdjustStock(stub, nil)

	body := `{"sku_id": "` + skuID.String() + `", "delta": 50, "kind": "restock", "note": "weekly delivery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/branches/x/stock/adjust", strings.NewReader(body))
	req = withURLParam(req, "branchId", uuid.NewString())
	req = req.WithContext(middleware.WithActorID(req.Context(), actorID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.lastApply.Kind != enums.TransactionKindRestock {
		t.Fatalf("unexpected kind %q", stub.lastApply.Kind)
	}
	if stub.lastApply.ActorID == nil || *stub.lastApply.ActorID != actorID {
		t.Fatalf("expected actor %s, got %v", actorID, stub.lastApply.ActorID)
	}
}

func TestAdjustStockRejectsUnknownKind(t *testing.T) {
	handler := AdjustStock(&stubLedger{}, nil)

	body := `{"sku_id": "` + uuid.NewString() + `", "delta": 5, "kind": "teleport"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/branches/x/stock/adjust", strings.NewReader(body))
	req = withURLParam(req, "branchId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdjustStockSurfacesInsufficientStock(t *testing.T) {
	stub := &stubLedger{err: pkgerrors.InsufficientStock(5, 10)}
	handler := AdjustStock(stub, nil)

	body := `{"sku_id": "` + uuid.NewString() + `", "delta": -10, "kind": "sale"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/branches/x/stock/adjust", strings.NewReader(body))
	req = withURLParam(req, "branchId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if envelope.Error.Details["available"] != 5 || envelope.Error.Details["requested"] != 10 {
		t.Fatalf("unexpected details %v", envelope.Error.Details)
	}
}

func TestTransferStockRejectsMalformedBranchID(t *testing.T) {
	handler := TransferStock(&stubLedger{}, nil)

	body := `{"from_branch_id": "` + uuid.NewString() + `", "to_branch_id": "nope", "sku_id": "` + uuid.NewString() + `", "qty": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/transfer", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLowStockFiltersByBranchQuery(t *testing.T) {
	stub := &stubLedger{items: []ledgersvc.LowStockItem{
		{BranchCode: "MKT-01", SKUName: "Pepperoni", Quantity: 2, SafetyStock: 10},
	}}
	handler := LowStock(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/low?branch_id="+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []ledgersvc.LowStockItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].BranchCode != "MKT-01" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestLowStockRejectsMalformedBranchQuery(t *testing.T) {
	handler := LowStock(&stubLedger{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/low?branch_id=banana", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
