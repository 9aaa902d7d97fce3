package refunds

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type stubRefundsRepo struct {
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID]*models.OrderItem
}

func newStubRefundsRepo() *stubRefundsRepo {
	return &stubRefundsRepo{
		orders: make(map[uuid.UUID]*models.Order),
		items:  make(map[uuid.UUID]*models.OrderItem),
	}
}

func (s *stubRefundsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRefundsRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubRefundsRepo) FindItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func refundStateMatches(current enums.RefundState, from []enums.RefundState) bool {
	for _, state := range from {
		if current == state {
			return true
		}
	}
	return false
}

func (s *stubRefundsRepo) UpdateOrderRefundIf(ctx context.Context, orderID uuid.UUID, from []enums.RefundState, updates map[string]any) (int64, error) {
	order, ok := s.orders[orderID]
	if !ok || !refundStateMatches(order.RefundStatus, from) {
		return 0, nil
	}
	for key, value := range updates {
		switch key {
		case "refund_status":
			order.RefundStatus = value.(enums.RefundState)
		case "refund_requested":
			order.RefundRequested = value.(bool)
		case "refund_reason":
			reason := value.(string)
			order.RefundReason = &reason
		}
	}
	return 1, nil
}

func (s *stubRefundsRepo) UpdateItemRefundIf(ctx context.Context, itemID uuid.UUID, from []enums.RefundState, updates map[string]any) (int64, error) {
	item, ok := s.items[itemID]
	if !ok || !refundStateMatches(item.RefundStatus, from) {
		return 0, nil
	}
	for key, value := range updates {
		switch key {
		case "refund_status":
			item.RefundStatus = value.(enums.RefundState)
		case "refund_requested":
			item.RefundRequested = value.(bool)
		case "refund_reason":
			reason := value.(string)
			item.RefundReason = &reason
		}
	}
	return 1, nil
}

func (s *stubRefundsRepo) ApprovedItemRefundTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range s.items {
		if item.OrderID == orderID && item.RefundStatus == enums.RefundStateApproved {
			total = total.Add(item.Total)
		}
	}
	return total, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderCloser struct {
	refunded []uuid.UUID
}

func (s *stubOrderCloser) MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	s.refunded = append(s.refunded, orderID)
	return nil
}

func seedDeliveredOrder(repo *stubRefundsRepo, itemTotals ...int64) (*models.Order, []*models.OrderItem) {
	total := decimal.Zero
	order := &models.Order{
		ID:           uuid.New(),
		OrderNumber:  4001,
		Status:       enums.OrderStatusDelivered,
		RefundStatus: enums.RefundStateNone,
	}
	var items []*models.OrderItem
	for i, itemTotal := range itemTotals {
		amount := decimal.NewFromInt(itemTotal)
		item := &models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductName:  "Lahpet Set",
			ProductSKU:   "LS-0" + string(rune('1'+i)),
			Price:        amount,
			Quantity:     1,
			Total:        amount,
			RefundStatus: enums.RefundStateNone,
		}
		items = append(items, item)
		repo.items[item.ID] = item
		total = total.Add(amount)
	}
	order.Subtotal = total
	order.Total = total
	repo.orders[order.ID] = order
	return order, items
}

func newRefundsService(t *testing.T, repo Repository, closer orderCloser) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, closer)
	require.NoError(t, err)
	return svc
}

func TestItemRefundRequiresDeliveredOrder(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 5000)
	order.Status = enums.OrderStatusProcessing
	svc := newRefundsService(t, repo, &stubOrderCloser{})

	_, err := svc.RequestItemRefund(context.Background(), ItemRefundRequest{
		OrderID: order.ID,
		ItemID:  items[0].ID,
		Reason:  "wrong item",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.RefundStateNone, repo.items[items[0].ID].RefundStatus)
}

func TestItemRefundRequestAndDuplicate(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 5000)
	svc := newRefundsService(t, repo, &stubOrderCloser{})
	ctx := context.Background()

	request := ItemRefundRequest{OrderID: order.ID, ItemID: items[0].ID, Reason: "damaged"}
	item, err := svc.RequestItemRefund(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateRequested, item.RefundStatus)
	assert.True(t, item.RefundRequested)

	_, err = svc.RequestItemRefund(ctx, request)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestItemRefundRejectResetsToNone(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 5000)
	svc := newRefundsService(t, repo, &stubOrderCloser{})
	ctx := context.Background()

	_, err := svc.RequestItemRefund(ctx, ItemRefundRequest{OrderID: order.ID, ItemID: items[0].ID, Reason: "damaged"})
	require.NoError(t, err)

	why := "photo shows no damage"
	item, err := svc.DecideItemRefund(ctx, ItemRefundDecision{ItemID: items[0].ID, Approve: false, Reason: &why})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateNone, item.RefundStatus)
	assert.False(t, item.RefundRequested)
	require.NotNil(t, item.RefundReason)
	assert.Equal(t, why, *item.RefundReason)

	// The reset leaves the door open for a second request.
	item, err = svc.RequestItemRefund(ctx, ItemRefundRequest{OrderID: order.ID, ItemID: items[0].ID, Reason: "second look"})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateRequested, item.RefundStatus)
}

func TestDecideItemRefundWithoutRequestFails(t *testing.T) {
	repo := newStubRefundsRepo()
	_, items := seedDeliveredOrder(repo, 5000)
	svc := newRefundsService(t, repo, &stubOrderCloser{})

	_, err := svc.DecideItemRefund(context.Background(), ItemRefundDecision{ItemID: items[0].ID, Approve: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestOrderRefundApprovalSubtractsApprovedItems(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 5000, 3000, 2000)
	closer := &stubOrderCloser{}
	svc := newRefundsService(t, repo, closer)
	ctx := context.Background()

	// One item refund settles first.
	_, err := svc.RequestItemRefund(ctx, ItemRefundRequest{OrderID: order.ID, ItemID: items[0].ID, Reason: "damaged"})
	require.NoError(t, err)
	_, err = svc.DecideItemRefund(ctx, ItemRefundDecision{ItemID: items[0].ID, Approve: true})
	require.NoError(t, err)

	_, err = svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "order never arrived intact"})
	require.NoError(t, err)

	result, err := svc.DecideOrderRefund(ctx, OrderRefundDecision{OrderID: order.ID, Approve: true})
	require.NoError(t, err)

	assert.True(t, result.ApprovedAmount.Equal(decimal.NewFromInt(5000)),
		"10000 total minus 5000 already approved, got %s", result.ApprovedAmount)
	assert.Equal(t, enums.RefundStateApproved, result.Order.RefundStatus)
	assert.Equal(t, []uuid.UUID{order.ID}, closer.refunded)

	// Cap property: order-level amount plus prior item approvals never
	// exceeds the order total.
	itemTotal, err := repo.ApprovedItemRefundTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, result.ApprovedAmount.Add(itemTotal).LessThanOrEqual(order.Total))
}

func TestOrderRefundApprovalClampsAtZero(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 6000, 4000)
	closer := &stubOrderCloser{}
	svc := newRefundsService(t, repo, closer)
	ctx := context.Background()

	for _, item := range items {
		_, err := svc.RequestItemRefund(ctx, ItemRefundRequest{OrderID: order.ID, ItemID: item.ID, Reason: "damaged"})
		require.NoError(t, err)
		_, err = svc.DecideItemRefund(ctx, ItemRefundDecision{ItemID: item.ID, Approve: true})
		require.NoError(t, err)
	}

	_, err := svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "everything was wrong"})
	require.NoError(t, err)
	result, err := svc.DecideOrderRefund(ctx, OrderRefundDecision{OrderID: order.ID, Approve: true})
	require.NoError(t, err)

	assert.True(t, result.ApprovedAmount.IsZero(),
		"items already covered the full total, got %s", result.ApprovedAmount)
}

func TestItemApprovalBlockedAfterOrderRefundApproved(t *testing.T) {
	repo := newStubRefundsRepo()
	order, items := seedDeliveredOrder(repo, 6000, 4000)
	closer := &stubOrderCloser{}
	svc := newRefundsService(t, repo, closer)
	ctx := context.Background()

	// Item request opens first but sits undecided while the order-level
	// refund pays out the full total.
	_, err := svc.RequestItemRefund(ctx, ItemRefundRequest{OrderID: order.ID, ItemID: items[0].ID, Reason: "damaged"})
	require.NoError(t, err)

	_, err = svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "order never arrived intact"})
	require.NoError(t, err)
	result, err := svc.DecideOrderRefund(ctx, OrderRefundDecision{OrderID: order.ID, Approve: true})
	require.NoError(t, err)
	assert.True(t, result.ApprovedAmount.Equal(order.Total))

	// Approving the stale item request on top would pay out more than the
	// order total.
	_, err = svc.DecideItemRefund(ctx, ItemRefundDecision{ItemID: items[0].ID, Approve: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.RefundStateRequested, repo.items[items[0].ID].RefundStatus)

	itemTotal, err := repo.ApprovedItemRefundTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, result.ApprovedAmount.Add(itemTotal).LessThanOrEqual(order.Total))

	// Rejecting it is still allowed so the request does not dangle.
	item, err := svc.DecideItemRefund(ctx, ItemRefundDecision{ItemID: items[0].ID, Approve: false})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateNone, item.RefundStatus)
}

func TestOrderRefundRejectResets(t *testing.T) {
	repo := newStubRefundsRepo()
	order, _ := seedDeliveredOrder(repo, 5000)
	closer := &stubOrderCloser{}
	svc := newRefundsService(t, repo, closer)
	ctx := context.Background()

	_, err := svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "changed my mind"})
	require.NoError(t, err)

	why := "outside refund window"
	result, err := svc.DecideOrderRefund(ctx, OrderRefundDecision{OrderID: order.ID, Approve: false, Reason: &why})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateNone, result.Order.RefundStatus)
	assert.False(t, result.Order.RefundRequested)
	assert.Empty(t, closer.refunded)
}

func TestOrderRefundRequestBlockedOnCancelledOrder(t *testing.T) {
	repo := newStubRefundsRepo()
	order, _ := seedDeliveredOrder(repo, 5000)
	order.Status = enums.OrderStatusCancelled
	svc := newRefundsService(t, repo, &stubOrderCloser{})

	_, err := svc.RequestOrderRefund(context.Background(), OrderRefundRequest{OrderID: order.ID, Reason: "n/a"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCancelOrderRefundAllowsReRequest(t *testing.T) {
	repo := newStubRefundsRepo()
	order, _ := seedDeliveredOrder(repo, 5000)
	svc := newRefundsService(t, repo, &stubOrderCloser{})
	ctx := context.Background()

	_, err := svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "first try"})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrderRefund(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStateCancelled, cancelled.RefundStatus)

	_, err = svc.RequestOrderRefund(ctx, OrderRefundRequest{OrderID: order.ID, Reason: "second try"})
	require.NoError(t, err)
}
