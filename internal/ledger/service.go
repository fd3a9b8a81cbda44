package ledger

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
)

// Service is the stock ledger engine. Every quantity change flows through
// Apply or ApplyTx: one guarded inventory update plus one appended
// StockTransaction, atomically. Nothing else in the codebase writes to either
// table.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyResult, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	LowStock(ctx context.Context, branchID *uuid.UUID) ([]LowStockItem, error)
	Reconcile(ctx context.Context, branchID, skuID uuid.UUID) (*Reconciliation, error)
	History(ctx context.Context, filter HistoryFilter) ([]models.StockTransaction, int64, error)
	SetSafetyStock(ctx context.Context, branchID, skuID uuid.UUID, threshold int) (*models.InventoryRecord, error)
	BranchStock(ctx context.Context, branchID uuid.UUID) ([]models.InventoryRecord, error)
}

// ApplyInput describes one signed quantity delta against a (branch, SKU) pair.
type ApplyInput struct {
	BranchID uuid.UUID
	SKUID    uuid.UUID
	Delta    int
	Kind     enums.TransactionKind
	ActorID  *uuid.UUID
	Note     string
}

// ApplyResult carries the post-commit record and the appended ledger entry.
type ApplyResult struct {
	Record      *models.InventoryRecord
	Transaction *models.StockTransaction
}

// TransferInput moves quantity between two branches of the same SKU.
type TransferInput struct {
	FromBranchID uuid.UUID
	ToBranchID   uuid.UUID
	SKUID        uuid.UUID
	Qty          int
	ActorID      *uuid.UUID
}

// TransferResult carries both post-transfer records.
type TransferResult struct {
	From *ApplyResult
	To   *ApplyResult
}

// LowStockItem is the read DTO for detector and alerting consumers.
type LowStockItem struct {
	BranchID    uuid.UUID `json:"branch_id"`
	BranchCode  string    `json:"branch_code"`
	BranchName  string    `json:"branch_name"`
	SKUID       uuid.UUID `json:"sku_id"`
	SKUName     string    `json:"sku_name"`
	Quantity    int       `json:"quantity"`
	SafetyStock int       `json:"safety_stock"`
	Status      string    `json:"status"`
}

// Reconciliation reports the ledger sum against the materialized quantity.
type Reconciliation struct {
	BranchID   uuid.UUID `json:"branch_id"`
	SKUID      uuid.UUID `json:"sku_id"`
	LedgerSum  int       `json:"ledger_sum"`
	Quantity   int       `json:"quantity"`
	Consistent bool      `json:"consistent"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs the ledger engine.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

// Apply runs one delta in its own transaction.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error) {
	var result *ApplyResult
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.ApplyTx(ctx, tx, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyTx runs one delta inside the caller's transaction so order payment and
// transfers can compose multiple deltas atomically.
func (s *service) ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyResult, error) {
	if err := validateApplyInput(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	if err := ensurePairExists(ctx, repo, input.BranchID, input.SKUID); err != nil {
		return nil, err
	}

	record, err := repo.GetOrCreateRecord(ctx, input.BranchID, input.SKUID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory record")
	}

	var restockedAt *time.Time
	if input.Kind == enums.TransactionKindRestock {
		now := time.Now().UTC()
		restockedAt = &now
	}

	applied, err := repo.AdjustQuantity(ctx, record.ID, input.Delta, restockedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting quantity")
	}
	if !applied {
		current, err := repo.FindRecord(ctx, input.BranchID, input.SKUID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading inventory record")
		}
		return nil, pkgerrors.InsufficientStock(current.Quantity, -input.Delta)
	}

	txn, err := repo.AppendTransaction(ctx, &models.StockTransaction{
		BranchID: input.BranchID,
		SKUID:    input.SKUID,
		Quantity: input.Delta,
		Kind:     input.Kind,
		Note:     input.Note,
		ActorID:  input.ActorID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending stock transaction")
	}

	updated, err := repo.FindRecord(ctx, input.BranchID, input.SKUID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading inventory record")
	}

	return &ApplyResult{Record: updated, Transaction: txn}, nil
}

// Transfer debits the source branch then credits the destination in one
// transaction. A failed debit aborts everything.
func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer qty must be positive")
	}
	if input.FromBranchID == input.ToBranchID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer to the same branch")
	}

	fromBranch, err := s.branchName(ctx, input.FromBranchID)
	if err != nil {
		return nil, err
	}
	toBranch, err := s.branchName(ctx, input.ToBranchID)
	if err != nil {
		return nil, err
	}

	var result TransferResult
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		debit, err := s.ApplyTx(ctx, tx, ApplyInput{
			BranchID: input.FromBranchID,
			SKUID:    input.SKUID,
			Delta:    -input.Qty,
			Kind:     enums.TransactionKindTransfer,
			ActorID:  input.ActorID,
			Note:     fmt.Sprintf("Transfer to %s", toBranch),
		})
		if err != nil {
			return err
		}

		credit, err := s.ApplyTx(ctx, tx, ApplyInput{
			BranchID: input.ToBranchID,
			SKUID:    input.SKUID,
			Delta:    input.Qty,
			Kind:     enums.TransactionKindTransfer,
			ActorID:  input.ActorID,
			Note:     fmt.Sprintf("Transfer from %s", fromBranch),
		})
		if err != nil {
			return err
		}

		result = TransferResult{From: debit, To: credit}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"sku_id": input.SKUID,
		"from":   fromBranch,
		"to":     toBranch,
		"qty":    input.Qty,
	})
	s.logg.Info(ctx, "stock transferred")

	return &result, nil
}

// LowStock lists records below their safety threshold.
func (s *service) LowStock(ctx context.Context, branchID *uuid.UUID) ([]LowStockItem, error) {
	records, err := s.repo.ListLowStock(ctx, branchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing low stock")
	}

	items := make([]LowStockItem, 0, len(records))
	for _, record := range records {
		item := LowStockItem{
			BranchID:    record.BranchID,
			SKUID:       record.SKUID,
			Quantity:    record.Quantity,
			SafetyStock: record.SafetyStock,
			Status:      record.StockStatus(),
		}
		if record.Branch != nil {
			item.BranchCode = record.Branch.Code
			item.BranchName = record.Branch.Name
		}
		if record.SKU != nil {
			item.SKUName = record.SKU.Name
		}
		items = append(items, item)
	}
	return items, nil
}

// Reconcile checks the reconciliation invariant for one pair.
func (s *service) Reconcile(ctx context.Context, branchID, skuID uuid.UUID) (*Reconciliation, error) {
	record, err := s.repo.FindRecord(ctx, branchID, skuID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory record")
	}

	sum, err := s.repo.SumTransactions(ctx, branchID, skuID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing ledger")
	}

	return &Reconciliation{
		BranchID:   branchID,
		SKUID:      skuID,
		LedgerSum:  sum,
		Quantity:   record.Quantity,
		Consistent: sum == record.Quantity,
	}, nil
}

// History pages through the transaction ledger.
func (s *service) History(ctx context.Context, filter HistoryFilter) ([]models.StockTransaction, int64, error) {
	txns, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	return txns, total, nil
}

// SetSafetyStock updates the low-stock threshold, creating the record when the
// pair has never been touched.
func (s *service) SetSafetyStock(ctx context.Context, branchID, skuID uuid.UUID, threshold int) (*models.InventoryRecord, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safety stock cannot be negative")
	}

	var record *models.InventoryRecord
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensurePairExists(ctx, repo, branchID, skuID); err != nil {
			return err
		}

		rec, err := repo.GetOrCreateRecord(ctx, branchID, skuID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory record")
		}
		if err := repo.SetSafetyStock(ctx, rec.ID, threshold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting safety stock")
		}

		record, err = repo.FindRecord(ctx, branchID, skuID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BranchStock returns every inventory record held by a branch.
func (s *service) BranchStock(ctx context.Context, branchID uuid.UUID) ([]models.InventoryRecord, error) {
	records, err := s.repo.ListRecordsByBranch(ctx, branchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing branch stock")
	}
	return records, nil
}

func (s *service) branchName(ctx context.Context, branchID uuid.UUID) (string, error) {
	var branch models.Branch
	err := s.repo.db.WithContext(ctx).First(&branch, "id = ?", branchID).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading branch")
	}
	return branch.Name, nil
}

func validateApplyInput(input ApplyInput) error {
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown transaction kind %q", input.Kind))
	}
	if input.BranchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if input.SKUID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	return nil
}

func ensurePairExists(ctx context.Context, repo *Repository, branchID, skuID uuid.UUID) error {
	branchOK, err := repo.BranchExists(ctx, branchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking branch")
	}
	if !branchOK {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}

	skuOK, err := repo.SKUExists(ctx, skuID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking sku")
	}
	if !skuOK {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
	}
	return nil
}
