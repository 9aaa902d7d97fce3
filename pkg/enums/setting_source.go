package enums

import "fmt"

// SettingSource records who last wrote a store setting. Admin-set values take
// precedence over scheduler writes at read time.
type SettingSource string

const (
	SettingSourceAdmin    SettingSource = "admin"
	SettingSourceSchedule SettingSource = "schedule"
)

var validSettingSources = []SettingSource{
	SettingSourceAdmin,
	SettingSourceSchedule,
}

// String implements fmt.Stringer.
func (s SettingSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettingSource.
func (s SettingSource) IsValid() bool {
	for _, candidate := range validSettingSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettingSource converts raw input into a SettingSource.
func ParseSettingSource(value string) (SettingSource, error) {
	for _, candidate := range validSettingSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid setting source %q", value)
}
