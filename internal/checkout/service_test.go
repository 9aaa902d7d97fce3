package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/kpay"
)

type stubCheckoutRepo struct {
	orders   []*models.Order
	items    []models.OrderItem
	payments map[uuid.UUID]*models.Payment
	next     int64

	// dupFailures makes the next N order inserts fail the way a concurrent
	// checkout winning the same order number would.
	dupFailures int
	numberReads int
}

func newStubCheckoutRepo() *stubCheckoutRepo {
	return &stubCheckoutRepo{payments: make(map[uuid.UUID]*models.Payment), next: 1001}
}

func (s *stubCheckoutRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubCheckoutRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	s.numberReads++
	number := s.next
	s.next++
	return number, nil
}

func (s *stubCheckoutRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.dupFailures > 0 {
		s.dupFailures--
		return nil, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *stubCheckoutRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	s.items = append(s.items, items...)
	return nil
}

func (s *stubCheckoutRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubCheckoutRepo) AttachTransactionID(ctx context.Context, paymentID uuid.UUID, transactionID string) (int64, error) {
	payment, ok := s.payments[paymentID]
	if !ok || payment.Status != enums.PaymentStatusPending || payment.KPayTransactionID != nil {
		return 0, nil
	}
	payment.KPayTransactionID = &transactionID
	return 1, nil
}

func (s *stubCheckoutRepo) FailPaymentIfPending(ctx context.Context, paymentID uuid.UUID, reason string) (int64, error) {
	payment, ok := s.payments[paymentID]
	if !ok || payment.Status != enums.PaymentStatusPending {
		return 0, nil
	}
	payment.Status = enums.PaymentStatusFailed
	payment.FailureReason = &reason
	return 1, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubGate struct {
	enabled bool
}

func (s *stubGate) OrdersEnabled(ctx context.Context) (bool, error) {
	return s.enabled, nil
}

type stubInitiator struct {
	result *kpay.InitiateResult
	err    error
	calls  int
}

func (s *stubInitiator) InitiatePayment(ctx context.Context, req kpay.InitiateRequest) (*kpay.InitiateResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func validSubmitInput(method enums.PaymentMethod) SubmitInput {
	return SubmitInput{
		CustomerName:    "Ma Thida",
		CustomerPhone:   "09790001122",
		DeliveryAddress: "No. 42, Bogyoke Road, Yangon",
		PaymentMethod:   method,
		Source:          enums.OrderSourceWeb,
		Tax:             decimal.NewFromInt(500),
		DeliveryFee:     decimal.NewFromInt(2500),
		Items: []LineInput{
			{ProductName: "Shan Noodle Kit", ProductSKU: "SNK-01", Price: decimal.NewFromInt(7500), Quantity: 2},
			{ProductName: "Tea Leaf Salad", ProductSKU: "TLS-02", Price: decimal.NewFromInt(3000), Quantity: 1},
		},
	}
}

func newCheckoutService(t *testing.T, repo Repository, gate orderGate, gateway paymentInitiator) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, gate, gateway, nil)
	require.NoError(t, err)
	return svc
}

func TestSubmitRejectedWhileOrderingClosed(t *testing.T) {
	repo := newStubCheckoutRepo()
	svc := newCheckoutService(t, repo, &stubGate{enabled: false}, &stubInitiator{})

	_, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodKPay))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, repo.orders, "no order may be created while closed")
}

func TestSubmitKPayCreatesPendingOrderAndPayment(t *testing.T) {
	repo := newStubCheckoutRepo()
	gateway := &stubInitiator{result: &kpay.InitiateResult{TransactionID: "KP-555", Status: "CREATED"}}
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, gateway)

	result, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodKPay))
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, int64(1001), order.OrderNumber)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(18000)), "subtotal %s", order.Subtotal)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(21000)), "total %s", order.Total)
	assert.False(t, order.IsPaid)
	require.Len(t, order.Items, 2)

	payment := result.Payment
	require.NotNil(t, payment)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
	assert.Equal(t, "SC-1001", payment.Reference)
	require.NotNil(t, payment.KPayTransactionID)
	assert.Equal(t, "KP-555", *payment.KPayTransactionID)
	assert.True(t, payment.Amount.Equal(order.Total))
	assert.Equal(t, 1, gateway.calls)
}

func TestSubmitCashSkipsGatewayAndStartsProcessing(t *testing.T) {
	repo := newStubCheckoutRepo()
	gateway := &stubInitiator{}
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, gateway)

	result, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodCash))
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusProcessing, result.Order.Status)
	assert.Nil(t, result.Payment)
	assert.Zero(t, gateway.calls)
	assert.Empty(t, repo.payments)
}

func TestSubmitGatewayFailureClosesAttempt(t *testing.T) {
	repo := newStubCheckoutRepo()
	gateway := &stubInitiator{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway unreachable")}
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, gateway)

	_, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodKPay))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	require.Len(t, repo.orders, 1, "the order survives for a retry with another method")
	require.Len(t, repo.payments, 1)
	for _, payment := range repo.payments {
		assert.Equal(t, enums.PaymentStatusFailed, payment.Status)
		require.NotNil(t, payment.FailureReason)
	}
}

func TestSubmitOrderNumbersIncrease(t *testing.T) {
	repo := newStubCheckoutRepo()
	gateway := &stubInitiator{result: &kpay.InitiateResult{TransactionID: "KP-1", Status: "CREATED"}}
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, gateway)
	ctx := context.Background()

	first, err := svc.Submit(ctx, validSubmitInput(enums.PaymentMethodCash))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, validSubmitInput(enums.PaymentMethodCash))
	require.NoError(t, err)

	assert.Equal(t, first.Order.OrderNumber+1, second.Order.OrderNumber)
}

func TestSubmitRetriesOrderNumberCollision(t *testing.T) {
	repo := newStubCheckoutRepo()
	repo.dupFailures = 2
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, &stubInitiator{})

	result, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodCash))
	require.NoError(t, err)

	// Two losers, then a fresh number on the third read.
	assert.Equal(t, 3, repo.numberReads)
	assert.Equal(t, int64(1003), result.Order.OrderNumber)
	require.Len(t, repo.orders, 1)
}

func TestSubmitGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newStubCheckoutRepo()
	repo.dupFailures = 10
	svc := newCheckoutService(t, repo, &stubGate{enabled: true}, &stubInitiator{})

	_, err := svc.Submit(context.Background(), validSubmitInput(enums.PaymentMethodCash))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.True(t, pkgerrors.IsUniqueViolation(err))
	assert.Empty(t, repo.orders)
}

func TestSubmitValidation(t *testing.T) {
	svc := newCheckoutService(t, newStubCheckoutRepo(), &stubGate{enabled: true}, &stubInitiator{})
	ctx := context.Background()

	empty := validSubmitInput(enums.PaymentMethodKPay)
	empty.Items = nil
	_, err := svc.Submit(ctx, empty)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	badQty := validSubmitInput(enums.PaymentMethodKPay)
	badQty.Items[0].Quantity = 0
	_, err = svc.Submit(ctx, badQty)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	noPhone := validSubmitInput(enums.PaymentMethodKPay)
	noPhone.CustomerPhone = " "
	_, err = svc.Submit(ctx, noPhone)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
