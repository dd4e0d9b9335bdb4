package enums

import "fmt"

// RegistryStatus maps to the registry_status enum in Postgres.
type RegistryStatus string

const (
	RegistryStatusActive   RegistryStatus = "active"
	RegistryStatusPaused   RegistryStatus = "paused"
	RegistryStatusArchived RegistryStatus = "archived"
)

var validRegistryStatuses = []RegistryStatus{
	RegistryStatusActive,
	RegistryStatusPaused,
	RegistryStatusArchived,
}

// IsValid reports whether the value is a known RegistryStatus.
func (s RegistryStatus) IsValid() bool {
	for _, candidate := range validRegistryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRegistryStatus converts raw input into a RegistryStatus.
func ParseRegistryStatus(value string) (RegistryStatus, error) {
	for _, candidate := range validRegistryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid registry status %q", value)
}

// RegistryVisibility controls who can view a registry page.
type RegistryVisibility string

const (
	RegistryVisibilityPublic   RegistryVisibility = "public"
	RegistryVisibilityPassword RegistryVisibility = "password"
	RegistryVisibilityPrivate  RegistryVisibility = "private"
)

var validRegistryVisibilities = []RegistryVisibility{
	RegistryVisibilityPublic,
	RegistryVisibilityPassword,
	RegistryVisibilityPrivate,
}

// IsValid reports whether the value is a known RegistryVisibility.
func (v RegistryVisibility) IsValid() bool {
	for _, candidate := range validRegistryVisibilities {
		if candidate == v {
			return true
		}
	}
	return false
}
