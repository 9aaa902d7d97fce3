package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Repository provides durable access to assignment rows. Status changes go
// through UpdateStatusIf so a stale handle (reassigned away, already
// resolved) can never overwrite the current row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.OrderAssignment) (*models.OrderAssignment, error)
	Find(ctx context.Context, id uuid.UUID) (*models.OrderAssignment, error)
	FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderAssignment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderAssignment, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.AssignmentStatus, updates map[string]any) (int64, error)
	CompletedInWindow(ctx context.Context, riderID uuid.UUID, since time.Time) ([]models.OrderAssignment, error)
	CompletedCountsSince(ctx context.Context, since time.Time, limit int) ([]RiderCompletionCount, error)
}
