package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
)

// Repository provides durable access to store settings rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, key string) (*models.StoreSetting, error)
	Upsert(ctx context.Context, setting *models.StoreSetting) error
}
