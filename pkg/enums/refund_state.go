package enums

import "fmt"

// RefundState tracks a refund request on an order or a single item.
type RefundState string

const (
	RefundStateNone      RefundState = "none"
	RefundStateRequested RefundState = "requested"
	RefundStateApproved  RefundState = "approved"
	RefundStateRejected  RefundState = "rejected"
	RefundStateCancelled RefundState = "cancelled"
)

var validRefundStates = []RefundState{
	RefundStateNone,
	RefundStateRequested,
	RefundStateApproved,
	RefundStateRejected,
	RefundStateCancelled,
}

// String implements fmt.Stringer.
func (r RefundState) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundState.
func (r RefundState) IsValid() bool {
	for _, candidate := range validRefundStates {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundState converts raw input into a RefundState.
func ParseRefundState(value string) (RefundState, error) {
	for _, candidate := range validRefundStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund state %q", value)
}
