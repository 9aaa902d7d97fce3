package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/kpay"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

const orderCurrency = "MMK"

// orderNumberRetries bounds how many order-number collisions one submission
// will absorb before giving up.
const orderNumberRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderGate interface {
	OrdersEnabled(ctx context.Context) (bool, error)
}

type paymentInitiator interface {
	InitiatePayment(ctx context.Context, req kpay.InitiateRequest) (*kpay.InitiateResult, error)
}

// Service owns checkout submission: gate check, order and item creation, and
// payment initiation. The gateway call happens after the transaction commits
// so no row lock is held across network I/O; the payment row stays pending
// until the reconciliation engine hears back.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gate    orderGate
	gateway paymentInitiator
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(repo Repository, tx txRunner, gate orderGate, gateway paymentInitiator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gate == nil {
		return nil, fmt.Errorf("orders gate required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{repo: repo, tx: tx, gate: gate, gateway: gateway, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	// The gate is re-read on every submission; nothing is cached in
	// process, so an admin close takes effect immediately.
	enabled, err := s.gate.OrdersEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ordering is currently closed")
	}

	subtotal := decimal.Zero
	for _, line := range input.Items {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total := subtotal.Add(input.Tax).Add(input.DeliveryFee)

	status := enums.OrderStatusPending
	if !input.PaymentMethod.RequiresGateway() {
		// Cash on delivery has no online settlement to wait for.
		status = enums.OrderStatusProcessing
	}

	var order *models.Order
	var payment *models.Payment
	for attempt := 0; ; attempt++ {
		order, payment, err = s.createOrder(ctx, input, status, subtotal, total)
		if err == nil {
			break
		}
		// Two concurrent checkouts can read the same MAX(order_number);
		// the unique index fails the loser, which just takes the next one.
		if attempt < orderNumberRetries && pkgerrors.IsUniqueViolation(err) {
			continue
		}
		return nil, err
	}

	if payment == nil {
		return &SubmitResult{Order: order}, nil
	}

	result, err := s.gateway.InitiatePayment(ctx, kpay.InitiateRequest{
		Reference: payment.Reference,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Phone:     input.CustomerPhone,
	})
	if err != nil {
		// No money moved: close this attempt so the customer can retry
		// with another method against the same order.
		if _, failErr := s.repo.FailPaymentIfPending(ctx, payment.ID, "gateway initiation failed"); failErr != nil && s.logg != nil {
			s.logg.Error(ctx, "mark payment failed after initiation error", failErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment failed, choose another method")
	}

	if _, err := s.repo.AttachTransactionID(ctx, payment.ID, result.TransactionID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach gateway transaction")
	}
	payment.KPayTransactionID = &result.TransactionID

	return &SubmitResult{Order: order, Payment: payment}, nil
}

func (s *service) createOrder(ctx context.Context, input SubmitInput, status enums.OrderStatus, subtotal, total decimal.Decimal) (*models.Order, *models.Payment, error) {
	var order *models.Order
	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orderNumber, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order = &models.Order{
			OrderNumber:     orderNumber,
			Status:          status,
			Subtotal:        subtotal,
			Tax:             input.Tax,
			DeliveryFee:     input.DeliveryFee,
			Total:           total,
			Currency:        orderCurrency,
			CustomerName:    input.CustomerName,
			CustomerPhone:   input.CustomerPhone,
			CustomerEmail:   input.CustomerEmail,
			DeliveryAddress: input.DeliveryAddress,
			ScheduleNotes:   input.ScheduleNotes,
			DeliveryTime:    input.DeliveryTime,
			PaymentMethod:   input.PaymentMethod,
			Source:          input.Source,
			RefundStatus:    enums.RefundStateNone,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			items = append(items, models.OrderItem{
				OrderID:      order.ID,
				ProductID:    line.ProductID,
				ProductName:  line.ProductName,
				ProductSKU:   line.ProductSKU,
				Price:        line.Price,
				Quantity:     line.Quantity,
				Total:        line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
				RefundStatus: enums.RefundStateNone,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if input.PaymentMethod.RequiresGateway() {
			payment = &models.Payment{
				OrderID:   order.ID,
				Status:    enums.PaymentStatusPending,
				Amount:    total,
				Currency:  orderCurrency,
				Reference: fmt.Sprintf("SC-%d", orderNumber),
			}
			if _, err := repo.CreatePayment(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, payment, nil
}

func validateSubmit(input SubmitInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order source")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if input.Tax.IsNegative() || input.DeliveryFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax and delivery fee cannot be negative")
	}
	for i, line := range input.Items {
		if strings.TrimSpace(line.ProductName) == "" || strings.TrimSpace(line.ProductSKU) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d missing name or sku", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d quantity must be positive", i))
		}
		if line.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d price cannot be negative", i))
		}
	}
	return nil
}
