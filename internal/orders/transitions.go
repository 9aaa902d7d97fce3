package orders

import (
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// transitions is the forward graph for order status. Cancelled and refunded
// are omitted here and handled by CanTransition: cancellation is allowed from
// any non-terminal state and a refund approval may also close out a delivered
// order.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing: {enums.OrderStatusAssigned},
	enums.OrderStatusAssigned:   {enums.OrderStatusAssigned, enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  nil,
	enums.OrderStatusCancelled:  nil,
	enums.OrderStatusRefunded:   nil,
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	switch to {
	case enums.OrderStatusCancelled:
		return !from.IsTerminal()
	case enums.OrderStatusRefunded:
		// Refunds close non-terminal orders and, uniquely among terminal
		// states, delivered ones: a customer refunds what was delivered.
		return !from.IsTerminal() || from == enums.OrderStatusDelivered
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// priorStates returns every status from which the given target is reachable.
// Used to build the conditional-update WHERE clause so a concurrent writer
// can never push an order backwards.
func priorStates(to enums.OrderStatus) []enums.OrderStatus {
	var from []enums.OrderStatus
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusAssigned,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		if CanTransition(status, to) {
			from = append(from, status)
		}
	}
	return from
}
