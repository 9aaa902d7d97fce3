package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Order represents one checkout transaction. Status and IsPaid are the only
// fields the engines mutate after creation; rows are never hard-deleted.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    int64             `gorm:"column:order_number;not null;uniqueIndex"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal       decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax            decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	DeliveryFee    decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Currency       string            `gorm:"column:currency;not null;default:'MMK'"`
	CustomerName   string            `gorm:"column:customer_name;not null"`
	CustomerPhone  string            `gorm:"column:customer_phone;not null"`
	CustomerEmail  *string           `gorm:"column:customer_email"`
	DeliveryAddress string           `gorm:"column:delivery_address;not null"`
	ScheduleNotes  *string           `gorm:"column:schedule_notes"`
	DeliveryTime   *time.Time        `gorm:"column:delivery_time"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'kpay'"`
	IsPaid         bool              `gorm:"column:is_paid;not null;default:false"`
	Source         enums.OrderSource `gorm:"column:source;type:text;not null;default:'web'"`

	RefundRequested   bool              `gorm:"column:refund_requested;not null;default:false"`
	RefundStatus      enums.RefundState `gorm:"column:refund_status;type:text;not null;default:'none'"`
	RefundReason      *string           `gorm:"column:refund_reason"`
	RefundRequestedAt *time.Time        `gorm:"column:refund_requested_at"`

	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments    []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Assignments []OrderAssignment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
