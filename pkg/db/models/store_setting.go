package models

import (
	"time"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// StoreSetting is a single configuration key. The source discriminator lets
// read-time precedence ignore scheduler writes once an admin has set a value.
type StoreSetting struct {
	Key       string              `gorm:"column:key;primaryKey"`
	Value     string              `gorm:"column:value;not null"`
	Source    enums.SettingSource `gorm:"column:source;type:text;not null;default:'admin'"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SettingOrdersEnabled gates new checkouts.
const SettingOrdersEnabled = "orders_enabled"
