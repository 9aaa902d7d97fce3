package assignments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput carries one dispatch decision. Fee is the dispatcher-set
// assignment fee; the order's delivery fee is snapshotted alongside it so
// later order corrections never change what the rider earns.
type CreateInput struct {
	OrderID uuid.UUID
	RiderID uuid.UUID
	Fee     decimal.Decimal
	Notes   *string
}

// RespondInput is a rider's answer to an offered assignment.
type RespondInput struct {
	AssignmentID uuid.UUID
	RiderID      uuid.UUID
	Accept       bool
}

// EarningsSummary is a derived read over completed assignments inside the
// trailing window; nothing here is a stored running total.
type EarningsSummary struct {
	RiderID     uuid.UUID       `json:"rider_id"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Completed   int             `json:"completed"`
	Total       decimal.Decimal `json:"total"`
}

// RiderCompletionCount is one leaderboard row.
type RiderCompletionCount struct {
	RiderID   uuid.UUID `json:"rider_id"`
	Completed int       `json:"completed"`
}
