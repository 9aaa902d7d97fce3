package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
)

// Repository provides durable access to payment rows. SettleIfPending is the
// conditional write that makes terminal states monotonic: it matches only
// while the row is still pending, so a payment that has settled can never be
// written again.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	SettleIfPending(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	MarkClientTimeout(ctx context.Context, id uuid.UUID, reason string) error
}
