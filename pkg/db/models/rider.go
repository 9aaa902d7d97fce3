package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Rider is a delivery agent. Referenced, never owned, by assignments.
type Rider struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	Phone     string            `gorm:"column:phone;not null"`
	Status    enums.RiderStatus `gorm:"column:status;type:text;not null;default:'active'"`
	UserID    *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
