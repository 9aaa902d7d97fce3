package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.OrderAssignment) (*models.OrderAssignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.OrderAssignment, error) {
	var assignment models.OrderAssignment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderAssignment, error) {
	var assignment models.OrderAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID,
			[]enums.AssignmentStatus{enums.AssignmentStatusPending, enums.AssignmentStatusAccepted}).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderAssignment, error) {
	var all []models.OrderAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("assigned_at ASC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.AssignmentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderAssignment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CompletedInWindow(ctx context.Context, riderID uuid.UUID, since time.Time) ([]models.OrderAssignment, error) {
	var all []models.OrderAssignment
	err := r.db.WithContext(ctx).
		Where("rider_id = ? AND status = ? AND completed_at >= ?",
			riderID, enums.AssignmentStatusCompleted, since).
		Order("completed_at ASC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}
	return all, nil
}

// CompletedCountsSince ranks riders by completed deliveries in the window.
// Rows with equal counts come back in whatever order the database yields
// them; the tie-break is undefined.
func (r *repository) CompletedCountsSince(ctx context.Context, since time.Time, limit int) ([]RiderCompletionCount, error) {
	var counts []RiderCompletionCount
	err := r.db.WithContext(ctx).
		Model(&models.OrderAssignment{}).
		Select("rider_id, COUNT(*) AS completed").
		Where("status = ? AND completed_at >= ?", enums.AssignmentStatusCompleted, since).
		Group("rider_id").
		Order("completed DESC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
