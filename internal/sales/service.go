package sales

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
)

// Service records committed sales and maintains the daily rollup. A recorded
// sale always pairs one Sale row with one ledger deduction in the same
// transaction; a failed deduction leaves no Sale row behind.
type Service interface {
	RecordSale(ctx context.Context, input RecordSaleInput) (*models.Sale, error)
	RecordSaleTx(ctx context.Context, tx *gorm.DB, input RecordSaleInput) (*models.Sale, error)
	AggregateDaily(ctx context.Context, date time.Time) (int, error)
	TopSellers(ctx context.Context, branchID *uuid.UUID, days, limit int) ([]TopSellerRow, error)
	SalesByPeriod(ctx context.Context, filter PeriodFilter) ([]models.Sale, int64, error)
}

// RecordSaleInput describes one sale event. OrderID is set when the sale was
// produced by order payment; a direct point-of-sale quick sale leaves it nil.
type RecordSaleInput struct {
	BranchID  uuid.UUID
	SKUID     uuid.UUID
	Qty       int
	UnitPrice decimal.Decimal
	ActorID   *uuid.UUID
	OrderID   *uuid.UUID
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ledger   ledger.Service
	logg     *logger.Logger
}

// NewService constructs a sales service instance.
func NewService(repo *Repository, dbClient *db.Client, ledgerSvc ledger.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, ledger: ledgerSvc, logg: logg}, nil
}

// RecordSale runs one sale in its own transaction.
func (s *service) RecordSale(ctx context.Context, input RecordSaleInput) (*models.Sale, error) {
	var sale *models.Sale
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		recorded, err := s.RecordSaleTx(ctx, tx, input)
		if err != nil {
			return err
		}
		sale = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// RecordSaleTx runs one sale inside the caller's transaction so order payment
// can fan out per-item sales atomically.
func (s *service) RecordSaleTx(ctx context.Context, tx *gorm.DB, input RecordSaleInput) (*models.Sale, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale qty must be positive")
	}
	if input.UnitPrice.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	total := input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Qty))).Round(2)
	sale, err := s.repo.WithTx(tx).CreateSale(ctx, &models.Sale{
		BranchID:    input.BranchID,
		SKUID:       input.SKUID,
		Quantity:    input.Qty,
		UnitPrice:   input.UnitPrice.Round(2),
		TotalAmount: total,
		OrderID:     input.OrderID,
		ActorID:     input.ActorID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating sale")
	}

	_, err = s.ledger.ApplyTx(ctx, tx, ledger.ApplyInput{
		BranchID: input.BranchID,
		SKUID:    input.SKUID,
		Delta:    -input.Qty,
		Kind:     enums.TransactionKindSale,
		ActorID:  input.ActorID,
		Note:     fmt.Sprintf("Sale ID: %s", sale.ID),
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// AggregateDaily rebuilds the DailySales rollup for one calendar day.
// Idempotent: re-running replaces each key's totals with freshly computed
// values instead of accumulating.
func (s *service) AggregateDaily(ctx context.Context, date time.Time) (int, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	rows, err := s.repo.AggregateRange(ctx, day, next)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating sales")
	}

	var upserted int
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, agg := range rows {
			existing, err := repo.FindDailySales(ctx, agg.BranchID, agg.SKUID, day)
			if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if existing == nil {
				existing = &models.DailySales{
					BranchID: agg.BranchID,
					SKUID:    agg.SKUID,
					Date:     day,
				}
			}

			existing.TotalQuantity = agg.TotalQuantity
			existing.TotalAmount = agg.TotalAmount.Round(2)
			existing.AveragePrice = agg.AveragePrice.Round(2)
			existing.TransactionCount = agg.TransactionCount

			if err := repo.SaveDailySales(ctx, existing); err != nil {
				return err
			}
			upserted++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting daily sales")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"date": day.Format("2006-01-02"), "rows": upserted})
	s.logg.Info(ctx, "daily sales aggregated")

	return upserted, nil
}

// TopSellers ranks SKUs by quantity sold over the trailing window.
func (s *service) TopSellers(ctx context.Context, branchID *uuid.UUID, days, limit int) ([]TopSellerRow, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.repo.TopSellers(ctx, branchID, since, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ranking top sellers")
	}
	return rows, nil
}

// SalesByPeriod pages through raw sale events for reporting consumers.
func (s *service) SalesByPeriod(ctx context.Context, filter PeriodFilter) ([]models.Sale, int64, error) {
	if !filter.From.Before(filter.To) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "period start must precede end")
	}
	rows, total, err := s.repo.ListSalesByPeriod(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing sales")
	}
	return rows, total, nil
}
