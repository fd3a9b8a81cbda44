package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/config"
	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
)

const orderNumberAttempts = 3

// Service drives the order lifecycle. Payment is the only quantity-affecting
// transition: MarkPaid deducts stock exactly once, guarded by a status CAS.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, input MarkPaidInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actorID *uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]models.Order, error)
}

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	BranchID      uuid.UUID
	Items         []CreateOrderItemInput
	PaymentMethod enums.PaymentMethod
	CustomerName  string
	CustomerPhone string
	TableNumber   string
	Notes         string
}

// CreateOrderItemInput is one requested line.
type CreateOrderItemInput struct {
	SKUID uuid.UUID
	Qty   int
	Note  string
}

// MarkPaidInput carries optional payment detail captured at settlement.
type MarkPaidInput struct {
	PaymentMethod *enums.PaymentMethod
	Reference     string
	ActorID       *uuid.UUID
}

type branchLoader interface {
	FindBranchByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
}

type skuLoader interface {
	FindSKUsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SKU, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	branches branchLoader
	skus     skuLoader
	sales    sales.Service
	ledger   ledger.Service
	cfg      config.OrdersConfig
	logg     *logger.Logger
}

// NewService constructs an order service instance.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	branches branchLoader,
	skus skuLoader,
	salesSvc sales.Service,
	ledgerSvc ledger.Service,
	cfg config.OrdersConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if branches == nil {
		return nil, fmt.Errorf("branch loader required")
	}
	if skus == nil {
		return nil, fmt.Errorf("sku loader required")
	}
	if salesSvc == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		branches: branches,
		skus:     skus,
		sales:    salesSvc,
		ledger:   ledgerSvc,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// Create validates the lines, snapshots unit prices from the active catalog,
// and computes subtotal, tax, and total once. Stock is not touched here.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	for _, item := range input.Items {
		if item.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item qty must be at least 1")
		}
	}

	branch, err := s.branches.FindBranchByID(ctx, input.BranchID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading branch")
	}
	if !branch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch is not active")
	}

	skuByID, err := s.loadActiveSKUs(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, line := range input.Items {
		sku := skuByID[line.SKUID]
		item := models.OrderItem{
			SKUID:     sku.ID,
			Quantity:  line.Qty,
			UnitPrice: sku.Price,
			Note:      line.Note,
		}
		subtotal = subtotal.Add(item.LineTotal())
		items = append(items, item)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.cfg.TaxRateDecimal()).Round(2)
	total := subtotal.Add(tax)

	var created *models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := newOrderNumber(time.Now().UTC())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
		}

		order := &models.Order{
			OrderNumber:   number,
			BranchID:      input.BranchID,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			TableNumber:   input.TableNumber,
			Subtotal:      subtotal,
			Tax:           tax,
			TotalAmount:   total,
			PaymentMethod: input.PaymentMethod,
			Status:        enums.OrderStatusPending,
			Notes:         input.Notes,
			Items:         items,
		}
		err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
			return err
		})
		if err == nil {
			created = order
			break
		}
		if db.IsUniqueViolation(err) && attempt < orderNumberAttempts-1 {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	ctx = s.logg.WithOrderNumber(ctx, created.OrderNumber)
	s.logg.Info(ctx, "order created")

	return created, nil
}

// MarkPaid settles a pending order. The pending-to-paid CAS and the per-item
// sale recording share one transaction, so a lost race or an out-of-stock line
// rolls everything back and stock is deducted at most once per order.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, input MarkPaidInput) (*models.Order, error) {
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", *input.PaymentMethod))
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		flipped, err := repo.MarkPaidCAS(ctx, orderID, time.Now().UTC(), input.PaymentMethod, input.Reference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
		}
		if !flipped {
			current, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
			}
			return stateConflict(current.Status, "order cannot be marked paid")
		}

		for _, item := range order.Items {
			_, err := s.sales.RecordSaleTx(ctx, tx, sales.RecordSaleInput{
				BranchID:  order.BranchID,
				SKUID:     item.SKUID,
				Qty:       item.Quantity,
				UnitPrice: item.UnitPrice,
				ActorID:   input.ActorID,
				OrderID:   &order.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	paid, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}

	ctx = s.logg.WithOrderNumber(ctx, paid.OrderNumber)
	s.logg.Info(ctx, "order paid")

	return paid, nil
}

// fulfillmentOrder maps each staff status to the status it must come from.
var fulfillmentOrder = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPreparing: enums.OrderStatusPaid,
	enums.OrderStatusReady:     enums.OrderStatusPreparing,
	enums.OrderStatusCompleted: enums.OrderStatusReady,
}

// UpdateStatus advances the order through the staff fulfillment chain.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actorID *uuid.UUID) (*models.Order, error) {
	from, ok := fulfillmentOrder[next]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q is not a staff transition", next))
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != from {
		return nil, stateConflict(order.Status, fmt.Sprintf("cannot move to %s", next))
	}

	extra := map[string]any{}
	if next == enums.OrderStatusCompleted {
		extra["completed_at"] = time.Now().UTC()
	}

	moved, err := s.repo.UpdateStatusCAS(ctx, orderID, from, next, extra)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !moved {
		current, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, stateConflict(current.Status, fmt.Sprintf("cannot move to %s", next))
	}

	return s.loadOrder(ctx, orderID)
}

// Cancel aborts a pending or paid order. Cancelling a paid order restocks the
// deducted quantities only when the restock-on-cancel policy is enabled.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanCancel() {
		return nil, stateConflict(order.Status, "order cannot be cancelled")
	}

	notes := order.Notes
	suffix := "[CANCELLED]"
	if strings.TrimSpace(reason) != "" {
		suffix = fmt.Sprintf("[CANCELLED] %s", strings.TrimSpace(reason))
	}
	if notes != "" {
		notes += "\n"
	}
	notes += suffix

	wasPaid := order.Status == enums.OrderStatusPaid

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.UpdateStatusCAS(ctx, orderID, order.Status, enums.OrderStatusCancelled, map[string]any{
			"notes": notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
		}
		if !moved {
			current, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
			}
			return stateConflict(current.Status, "order cannot be cancelled")
		}

		if wasPaid && s.cfg.RestockOnCancel {
			for _, item := range order.Items {
				_, err := s.ledger.ApplyTx(ctx, tx, ledger.ApplyInput{
					BranchID: order.BranchID,
					SKUID:    item.SKUID,
					Delta:    item.Quantity,
					Kind:     enums.TransactionKindAdjustment,
					Note:     fmt.Sprintf("Order %s cancelled", order.OrderNumber),
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, cancelled.OrderNumber)
	s.logg.Info(ctx, "order cancelled")

	return cancelled, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, orderID)
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return orders, total, nil
}

// FindExpiredPending returns pending online-payment orders whose payment
// window has lapsed.
func (s *service) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Order, error) {
	cutoff := now.Add(-s.cfg.PendingTTL)
	orders, err := s.repo.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding expired orders")
	}
	return orders, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) loadActiveSKUs(ctx context.Context, items []CreateOrderItemInput) (map[uuid.UUID]models.SKU, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.SKUID]; ok {
			continue
		}
		seen[item.SKUID] = struct{}{}
		ids = append(ids, item.SKUID)
	}

	skus, err := s.skus.FindSKUsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading skus")
	}

	byID := make(map[uuid.UUID]models.SKU, len(skus))
	for _, sku := range skus {
		byID[sku.ID] = sku
	}
	for _, id := range ids {
		sku, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sku %s not found", id))
		}
		if !sku.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sku %q is not available", sku.Name))
		}
	}
	return byID, nil
}

func stateConflict(current enums.OrderStatus, message string) error {
	err := pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s: order is %s", message, current))
	return err.WithDetails(map[string]string{"status": current.String()})
}
