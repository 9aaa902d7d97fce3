package refunds

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Repository provides durable access to the refund fields on orders and
// order items. Refund state changes are conditional on the current refund
// state so two staff decisions can never both apply.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	UpdateOrderRefundIf(ctx context.Context, orderID uuid.UUID, from []enums.RefundState, updates map[string]any) (int64, error)
	UpdateItemRefundIf(ctx context.Context, itemID uuid.UUID, from []enums.RefundState, updates map[string]any) (int64, error)
	ApprovedItemRefundTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}
