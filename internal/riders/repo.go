package riders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a riders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rider *models.Rider) (*models.Rider, error) {
	if err := r.db.WithContext(ctx).Create(rider).Error; err != nil {
		return nil, err
	}
	return rider, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rider).Error
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rider).Error
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *repository) List(ctx context.Context) ([]models.Rider, error) {
	var all []models.Rider
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RiderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ?", id).
		Update("status", status).Error
}
