package enums

import "fmt"

// RiderStatus marks whether a rider may receive assignments.
type RiderStatus string

const (
	RiderStatusActive   RiderStatus = "active"
	RiderStatusInactive RiderStatus = "inactive"
)

var validRiderStatuses = []RiderStatus{
	RiderStatusActive,
	RiderStatusInactive,
}

// String implements fmt.Stringer.
func (r RiderStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RiderStatus.
func (r RiderStatus) IsValid() bool {
	for _, candidate := range validRiderStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRiderStatus converts raw input into a RiderStatus.
func ParseRiderStatus(value string) (RiderStatus, error) {
	for _, candidate := range validRiderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rider status %q", value)
}
