package refunds

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
)

// ItemRefundRequest asks for one delivered line to be refunded.
type ItemRefundRequest struct {
	OrderID uuid.UUID
	ItemID  uuid.UUID
	Reason  string
}

// ItemRefundDecision resolves a requested item refund.
type ItemRefundDecision struct {
	ItemID  uuid.UUID
	Approve bool
	Reason  *string
}

// OrderRefundRequest asks for the whole order to be refunded.
type OrderRefundRequest struct {
	OrderID uuid.UUID
	Reason  string
}

// OrderRefundDecision resolves a requested order refund.
type OrderRefundDecision struct {
	OrderID uuid.UUID
	Approve bool
	Reason  *string
}

// OrderRefundResult reports the approved amount: order total minus any item
// refunds that were already approved, never below zero.
type OrderRefundResult struct {
	Order          *models.Order   `json:"order"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}
