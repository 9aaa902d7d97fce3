package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// LineInput is one cart line at submission time. Name, SKU and price are
// snapshotted onto the order item so later catalog edits never rewrite
// history.
type LineInput struct {
	ProductID   *uuid.UUID
	ProductName string
	ProductSKU  string
	Price       decimal.Decimal
	Quantity    int
}

// SubmitInput is one checkout submission.
type SubmitInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	DeliveryAddress string
	ScheduleNotes   *string
	DeliveryTime    *time.Time
	PaymentMethod   enums.PaymentMethod
	Source          enums.OrderSource
	Tax             decimal.Decimal
	DeliveryFee     decimal.Decimal
	Items           []LineInput
}

// SubmitResult is what the storefront needs to continue: the created order
// and, for gateway payments, the transaction handle the client polls on.
type SubmitResult struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment,omitempty"`
}
