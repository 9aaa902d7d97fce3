package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookEvent is the normalized shape of a gateway callback. Delivery is
// at-least-once and unordered; the engine must absorb duplicates and late
// arrivals without surfacing errors.
type WebhookEvent struct {
	TransactionRef string
	Status         string
	Amount         decimal.Decimal
	ReceivedAt     time.Time
}

// Reconciliation outcomes recorded against the event counter.
const (
	outcomeApplied     = "applied"
	outcomeDuplicate   = "duplicate"
	outcomeAdvisory    = "advisory"
	outcomeUnknownTxn  = "unknown_transaction"
	outcomePollPending = "poll_pending"
)
