package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/enums"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/types"
)

// Service fronts the simulated payment gateway. Initiate opens a processing
// attempt; Callback settles it and, on success, marks the order paid. Order
// level idempotency rides on the MarkPaid CAS, so a duplicate success callback
// cannot deduct stock twice.
type Service interface {
	Initiate(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*InitiateResult, error)
	Callback(ctx context.Context, paymentID uuid.UUID, outcome string, gatewayResponse types.JSONMap) (*models.Payment, error)
	Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

// InitiateResult carries the created attempt and where to send the customer.
type InitiateResult struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

// Callback outcomes accepted from the gateway.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

type service struct {
	repo   *Repository
	orders orders.Service
	logg   *logger.Logger
}

// NewService constructs a payments service instance.
func NewService(repo *Repository, ordersSvc orders.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, orders: ordersSvc, logg: logg}, nil
}

// Initiate opens a gateway attempt for a pending order.
func (s *service) Initiate(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*InitiateResult, error) {
	if !method.IsOnline() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment method %q does not use the gateway", method))
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		err := pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot initiate payment: order is %s", order.Status))
		return nil, err.WithDetails(map[string]string{"status": order.Status.String()})
	}

	reference, err := newReferenceNumber(method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating payment reference")
	}

	payment, err := s.repo.Create(ctx, &models.Payment{
		OrderID:         order.ID,
		PaymentMethod:   method,
		Amount:          order.TotalAmount,
		ReferenceNumber: reference,
		Status:          enums.PaymentStatusProcessing,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"reference":    reference,
		"method":       method.String(),
	})
	s.logg.Info(ctx, "payment initiated")

	return &InitiateResult{
		Payment:     payment,
		CheckoutURL: fmt.Sprintf("/api/v1/payments/%s/simulate", payment.ID),
	}, nil
}

// Callback settles a processing attempt with the gateway's verdict.
func (s *service) Callback(ctx context.Context, paymentID uuid.UUID, outcome string, gatewayResponse types.JSONMap) (*models.Payment, error) {
	var status enums.PaymentStatus
	switch outcome {
	case OutcomeSuccess:
		status = enums.PaymentStatusSuccess
	case OutcomeFailed:
		status = enums.PaymentStatusFailed
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown callback outcome %q", outcome))
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	settled, err := s.repo.SettleCAS(ctx, paymentID, status, gatewayResponse)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling payment")
	}
	if !settled {
		current, err := s.loadPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		conflict := pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment already %s", current.Status))
		return nil, conflict.WithDetails(map[string]string{"status": current.Status.String()})
	}

	if status == enums.PaymentStatusSuccess {
		_, err := s.orders.MarkPaid(ctx, payment.OrderID, orders.MarkPaidInput{
			PaymentMethod: &payment.PaymentMethod,
			Reference:     payment.ReferenceNumber,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.loadPayment(ctx, paymentID)
}

func (s *service) Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return s.loadPayment(ctx, paymentID)
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payments")
	}
	return payments, nil
}

func (s *service) loadPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
	}
	return payment, nil
}

// newReferenceNumber builds METHOD-<12 uppercase hex>.
func newReferenceNumber(method enums.PaymentMethod) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", strings.ToUpper(method.String()), strings.ToUpper(hex.EncodeToString(buf))), nil
}
