package riders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Repository provides durable access to rider rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rider *models.Rider) (*models.Rider, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Rider, error)
	List(ctx context.Context) ([]models.Rider, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RiderStatus) error
}
