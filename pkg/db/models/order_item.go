package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// OrderItem captures the snapshot of one purchased line. Name, SKU and price
// are frozen at checkout and stay immutable; only refund fields change later.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	ProductSKU  string          `gorm:"column:product_sku;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	RefundRequested bool              `gorm:"column:refund_requested;not null;default:false"`
	RefundStatus    enums.RefundState `gorm:"column:refund_status;type:text;not null;default:'none'"`
	RefundReason    *string           `gorm:"column:refund_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
