package refunds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderCloser is the slice of the order state machine a full refund drives.
type orderCloser interface {
	MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// requestableStates are the refund states a fresh request may start from: an
// untouched row, a rejected-and-reset row (already back to none), or a
// request the customer withdrew.
var requestableStates = []enums.RefundState{enums.RefundStateNone, enums.RefundStateCancelled}

// Service owns the item- and order-level refund tracks. Both run the same
// sub-state machine; approving at the order level is what moves the order
// itself to refunded, inside one transaction.
type Service interface {
	RequestItemRefund(ctx context.Context, input ItemRefundRequest) (*models.OrderItem, error)
	DecideItemRefund(ctx context.Context, input ItemRefundDecision) (*models.OrderItem, error)
	CancelItemRefund(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	RequestOrderRefund(ctx context.Context, input OrderRefundRequest) (*models.Order, error)
	DecideOrderRefund(ctx context.Context, input OrderRefundDecision) (*OrderRefundResult, error)
	CancelOrderRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	orders orderCloser
}

// NewService builds the refund workflow service.
func NewService(repo Repository, tx txRunner, orders orderCloser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order closer required")
	}
	return &service{repo: repo, tx: tx, orders: orders}, nil
}

// RequestItemRefund opens a refund request on one line. Only delivered
// orders qualify: there is nothing to send back before then.
func (s *service) RequestItemRefund(ctx context.Context, input ItemRefundRequest) (*models.OrderItem, error) {
	if input.OrderID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and item id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("items on a %s order cannot be refunded", order.Status))
	}

	item, err := s.findItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OrderID != order.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to order")
	}

	rows, err := s.repo.UpdateItemRefundIf(ctx, item.ID, requestableStates, map[string]any{
		"refund_requested": true,
		"refund_status":    enums.RefundStateRequested,
		"refund_reason":    input.Reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request item refund")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item refund already in progress or settled")
	}
	return s.findItem(ctx, input.ItemID)
}

// DecideItemRefund approves or rejects a requested item refund. Rejection
// resets the item to none so the customer may re-request, keeping the
// rejection reason for audit.
func (s *service) DecideItemRefund(ctx context.Context, input ItemRefundDecision) (*models.OrderItem, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.findItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Approve {
		// An order-level refund already pays out the remainder of the
		// total; approving an item on top of it would double-pay.
		order, err := s.findOrder(ctx, item.OrderID)
		if err != nil {
			return nil, err
		}
		if order.RefundStatus == enums.RefundStateApproved || order.Status == enums.OrderStatusRefunded {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"order refund already approved, item refund cannot be approved")
		}
		updates["refund_status"] = enums.RefundStateApproved
	} else {
		updates["refund_status"] = enums.RefundStateNone
		updates["refund_requested"] = false
	}
	if input.Reason != nil {
		updates["refund_reason"] = *input.Reason
	}

	rows, err := s.repo.UpdateItemRefundIf(ctx, input.ItemID,
		[]enums.RefundState{enums.RefundStateRequested}, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide item refund")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund request on item")
	}
	return s.findItem(ctx, input.ItemID)
}

// CancelItemRefund withdraws a pending item refund request.
func (s *service) CancelItemRefund(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if _, err := s.findItem(ctx, itemID); err != nil {
		return nil, err
	}

	rows, err := s.repo.UpdateItemRefundIf(ctx, itemID,
		[]enums.RefundState{enums.RefundStateRequested}, map[string]any{
			"refund_status":    enums.RefundStateCancelled,
			"refund_requested": false,
		})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel item refund")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund request on item")
	}
	return s.findItem(ctx, itemID)
}

// RequestOrderRefund opens an order-level refund request.
func (s *service) RequestOrderRefund(ctx context.Context, input OrderRefundRequest) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("a %s order cannot be refunded", order.Status))
	}

	rows, err := s.repo.UpdateOrderRefundIf(ctx, order.ID, requestableStates, map[string]any{
		"refund_requested":    true,
		"refund_status":       enums.RefundStateRequested,
		"refund_reason":       input.Reason,
		"refund_requested_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request order refund")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order refund already in progress or settled")
	}
	return s.findOrder(ctx, input.OrderID)
}

// DecideOrderRefund resolves an order-level request. Approval computes the
// amount as the order total minus item refunds that were already approved,
// clamped at zero, and moves the order to refunded in the same transaction.
func (s *service) DecideOrderRefund(ctx context.Context, input OrderRefundDecision) (*OrderRefundResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if !input.Approve {
		updates := map[string]any{
			"refund_status":    enums.RefundStateNone,
			"refund_requested": false,
		}
		if input.Reason != nil {
			updates["refund_reason"] = *input.Reason
		}
		rows, err := s.repo.UpdateOrderRefundIf(ctx, order.ID,
			[]enums.RefundState{enums.RefundStateRequested}, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject order refund")
		}
		if rows == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund request on order")
		}
		reloaded, err := s.findOrder(ctx, input.OrderID)
		if err != nil {
			return nil, err
		}
		return &OrderRefundResult{Order: reloaded, ApprovedAmount: decimal.Zero}, nil
	}

	var amount decimal.Decimal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		itemTotal, err := repo.ApprovedItemRefundTotal(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum approved item refunds")
		}
		amount = order.Total.Sub(itemTotal)
		if amount.IsNegative() {
			amount = decimal.Zero
		}

		updates := map[string]any{"refund_status": enums.RefundStateApproved}
		if input.Reason != nil {
			updates["refund_reason"] = *input.Reason
		}
		rows, err := repo.UpdateOrderRefundIf(ctx, order.ID,
			[]enums.RefundState{enums.RefundStateRequested}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve order refund")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund request on order")
		}

		return s.orders.MarkRefunded(ctx, tx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	return &OrderRefundResult{Order: reloaded, ApprovedAmount: amount}, nil
}

// CancelOrderRefund withdraws a pending order refund request.
func (s *service) CancelOrderRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := s.repo.UpdateOrderRefundIf(ctx, orderID,
		[]enums.RefundState{enums.RefundStateRequested}, map[string]any{
			"refund_status":    enums.RefundStateCancelled,
			"refund_requested": false,
		})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order refund")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund request on order")
	}
	return s.findOrder(ctx, orderID)
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) findItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return item, nil
}
