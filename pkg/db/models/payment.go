package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

// Payment is one payment attempt against an order. Several attempts may exist
// per order across retries; at most one ever reaches completed. Rows are only
// mutated by the reconciliation engine and never deleted.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;not null;default:'MMK'"`
	KPayTransactionID *string             `gorm:"column:kpay_transaction_id;uniqueIndex"`
	Reference         string              `gorm:"column:reference;not null"`

	ClientTimeout       bool    `gorm:"column:client_timeout;not null;default:false"`
	ClientTimeoutReason *string `gorm:"column:client_timeout_reason"`
	FailureReason       *string `gorm:"column:failure_reason"`

	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
