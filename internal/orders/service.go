package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/internal/notifications"
	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every order status transition. All writes go through the
// conditional update in the repository, so two concurrent callers racing the
// same order resolve to exactly one winner; the loser observes the new state
// and either no-ops (already there) or gets a structured conflict.
type Service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber int64) (*models.Order, error)
	ListOrders(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason *string) error

	// Transition hooks invoked by sibling engines inside their own
	// transaction. A nil tx falls back to the service's own connection.
	OnPaymentSettled(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error
	MarkAssigned(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, riderID uuid.UUID) error
	MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// UpdateStatusInput is the staff-facing status mutation.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Notes   *string
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifications.Notifier
}

// NewService builds the order state machine service.
func NewService(repo Repository, tx txRunner, notifier notifications.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber int64) (*models.Order, error) {
	if orderNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by number")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}
	all, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return all, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	if input.Status == enums.OrderStatusCancelled {
		if err := s.Cancel(ctx, input.OrderID, input.Notes); err != nil {
			return nil, err
		}
		return s.GetOrder(ctx, input.OrderID)
	}

	if err := s.transition(ctx, s.repo, input.OrderID, input.Status, nil); err != nil {
		if !errNoOp(err) {
			return nil, err
		}
		return s.GetOrder(ctx, input.OrderID)
	}
	s.notify(ctx, input.OrderID, eventForStatus(input.Status), input.Status, nil)
	return s.GetOrder(ctx, input.OrderID)
}

// Cancel is idempotent: cancelling an already-cancelled order succeeds
// without touching the row.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason *string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	updates := map[string]any{}
	if reason != nil {
		updates["schedule_notes"] = *reason
	}
	err := s.transition(ctx, s.repo, orderID, enums.OrderStatusCancelled, updates)
	if err != nil {
		if errNoOp(err) {
			return nil
		}
		return err
	}
	s.notify(ctx, orderID, notifications.EventOrderCancelled, enums.OrderStatusCancelled, nil)
	return nil
}

func (s *service) OnPaymentSettled(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error {
	repo := s.repo.WithTx(tx)

	switch status {
	case enums.PaymentStatusCompleted:
		err := s.transition(ctx, repo, orderID, enums.OrderStatusProcessing, map[string]any{"is_paid": true})
		if err != nil {
			if errNoOp(err) {
				return nil
			}
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				// Money landed on an order that can no longer advance,
				// usually one cancelled while the gateway settled. The
				// payment row keeps its terminal status; staff hear about
				// the stranded funds instead of the gateway getting a 4xx.
				current := enums.OrderStatusCancelled
				if order, ferr := repo.Find(ctx, orderID); ferr == nil {
					current = order.Status
				}
				s.notify(ctx, orderID, notifications.EventPaymentOrphaned, current, nil)
				return nil
			}
			return err
		}
		s.notify(ctx, orderID, notifications.EventOrderPaid, enums.OrderStatusProcessing, nil)
		return nil
	case enums.PaymentStatusFailed, enums.PaymentStatusCancelled:
		// The order stays pending so the customer can retry with another
		// method; downstream tooling still hears about the failure.
		s.notify(ctx, orderID, notifications.EventPaymentFailed, enums.OrderStatusPending, nil)
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "settlement hook requires a terminal payment status")
	}
}

func (s *service) MarkAssigned(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, riderID uuid.UUID) error {
	err := s.transition(ctx, s.repo.WithTx(tx), orderID, enums.OrderStatusAssigned, nil)
	if err != nil {
		if errNoOp(err) {
			return nil
		}
		return err
	}
	s.notify(ctx, orderID, notifications.EventOrderAssigned, enums.OrderStatusAssigned, &riderID)
	return nil
}

func (s *service) MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if err := s.transition(ctx, s.repo.WithTx(tx), orderID, enums.OrderStatusShipped, nil); err != nil {
		return err
	}
	s.notify(ctx, orderID, notifications.EventOrderShipped, enums.OrderStatusShipped, nil)
	return nil
}

func (s *service) MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if err := s.transition(ctx, s.repo.WithTx(tx), orderID, enums.OrderStatusDelivered, nil); err != nil {
		return err
	}
	s.notify(ctx, orderID, notifications.EventOrderDelivered, enums.OrderStatusDelivered, nil)
	return nil
}

func (s *service) MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	err := s.transition(ctx, s.repo.WithTx(tx), orderID, enums.OrderStatusRefunded, nil)
	if err != nil {
		if errNoOp(err) {
			return nil
		}
		return err
	}
	s.notify(ctx, orderID, notifications.EventOrderRefunded, enums.OrderStatusRefunded, nil)
	return nil
}

// errAlreadyInState marks the idempotent path: the row is already in the
// requested state. Callers that treat repeats as success unwrap it.
var errAlreadyInState = pkgerrors.New(pkgerrors.CodeStateConflict, "order already in requested state")

func errNoOp(err error) bool {
	return err == errAlreadyInState
}

func (s *service) transition(ctx context.Context, repo Repository, orderID uuid.UUID, to enums.OrderStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	rows, err := repo.UpdateStatusIf(ctx, orderID, priorStates(to), updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows > 0 {
		return nil
	}

	// Conditional update matched nothing: missing row, already there, or an
	// illegal jump. Re-read once to tell the caller which.
	order, err := repo.Find(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	if order.Status == to {
		return errAlreadyInState
	}
	if CanTransition(order.Status, to) {
		// The row was in an expected state when we read it but a concurrent
		// writer moved it between our read and write.
		return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", order.Status, to))
}

func (s *service) notify(ctx context.Context, orderID uuid.UUID, eventType string, status enums.OrderStatus, riderID *uuid.UUID) {
	s.notifier.Notify(ctx, notifications.OrderEvent{
		Type:       eventType,
		OrderID:    orderID,
		Status:     status,
		RiderID:    riderID,
		OccurredAt: time.Now().UTC(),
	})
}

func eventForStatus(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusProcessing:
		return notifications.EventOrderPaid
	case enums.OrderStatusAssigned:
		return notifications.EventOrderAssigned
	case enums.OrderStatusShipped:
		return notifications.EventOrderShipped
	case enums.OrderStatusDelivered:
		return notifications.EventOrderDelivered
	case enums.OrderStatusCancelled:
		return notifications.EventOrderCancelled
	case enums.OrderStatusRefunded:
		return notifications.EventOrderRefunded
	default:
		return "order.updated"
	}
}
