package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// OrderAssignment is one offer of an order to a rider. Resolved rows are
// append-only history; a reassignment closes the old row and inserts a new
// one so that at most one row per order is ever live.
type OrderAssignment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	RiderID     uuid.UUID              `gorm:"column:rider_id;type:uuid;not null;index"`
	Status      enums.AssignmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Fee         decimal.Decimal        `gorm:"column:fee;type:numeric(12,2);not null;default:0"`
	DeliveryFee decimal.Decimal        `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Notes       *string                `gorm:"column:notes"`
	AssignedAt  time.Time              `gorm:"column:assigned_at;autoCreateTime"`
	RespondedAt *time.Time             `gorm:"column:responded_at"`
	CompletedAt *time.Time             `gorm:"column:completed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
