package enums

import "fmt"

// RegistryItemStatus maps to the registry_item_status enum in Postgres.
// Removed items are soft-deactivated so historical purchases keep resolving.
type RegistryItemStatus string

const (
	RegistryItemStatusActive   RegistryItemStatus = "active"
	RegistryItemStatusInactive RegistryItemStatus = "inactive"
)

var validRegistryItemStatuses = []RegistryItemStatus{
	RegistryItemStatusActive,
	RegistryItemStatusInactive,
}

// IsValid reports whether the value is a known RegistryItemStatus.
func (s RegistryItemStatus) IsValid() bool {
	for _, candidate := range validRegistryItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRegistryItemStatus converts raw input into a RegistryItemStatus.
func ParseRegistryItemStatus(value string) (RegistryItemStatus, error) {
	for _, candidate := range validRegistryItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid registry item status %q", value)
}
