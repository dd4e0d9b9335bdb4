package enums

import "fmt"

// ContributionStatus maps to the contribution_status enum in Postgres.
//
// Legal transitions: pending -> completed, pending -> failed,
// completed -> refunded. Everything else is rejected.
type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusCompleted ContributionStatus = "completed"
	ContributionStatusFailed    ContributionStatus = "failed"
	ContributionStatusRefunded  ContributionStatus = "refunded"
)

var validContributionStatuses = []ContributionStatus{
	ContributionStatusPending,
	ContributionStatusCompleted,
	ContributionStatusFailed,
	ContributionStatusRefunded,
}

var contributionTransitions = map[ContributionStatus][]ContributionStatus{
	ContributionStatusPending:   {ContributionStatusCompleted, ContributionStatusFailed},
	ContributionStatusCompleted: {ContributionStatusRefunded},
}

// String implements fmt.Stringer.
func (c ContributionStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContributionStatus.
func (c ContributionStatus) IsValid() bool {
	for _, candidate := range validContributionStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status change is legal.
func (c ContributionStatus) CanTransitionTo(next ContributionStatus) bool {
	for _, candidate := range contributionTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseContributionStatus converts raw input into a ContributionStatus.
func ParseContributionStatus(value string) (ContributionStatus, error) {
	for _, candidate := range validContributionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contribution status %q", value)
}
