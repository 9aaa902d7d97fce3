package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
)

// Repository provides the writes checkout submission needs. NextOrderNumber
// must be called inside the same transaction as CreateOrder; the unique
// index on order_number backstops any race between concurrent checkouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	AttachTransactionID(ctx context.Context, paymentID uuid.UUID, transactionID string) (int64, error)
	FailPaymentIfPending(ctx context.Context, paymentID uuid.UUID, reason string) (int64, error)
}
