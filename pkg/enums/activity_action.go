package enums

import "fmt"

// ActivityAction maps to the activity_action enum in Postgres.
type ActivityAction string

const (
	ActivityRegistryCreated       ActivityAction = "registry_created"
	ActivityItemAdded             ActivityAction = "item_added"
	ActivityItemRemoved           ActivityAction = "item_removed"
	ActivityItemPurchased         ActivityAction = "item_purchased"
	ActivityContributionReceived  ActivityAction = "contribution_received"
	ActivityContributionCompleted ActivityAction = "contribution_completed"
	ActivityContributionRefunded  ActivityAction = "contribution_refunded"
	ActivityOrderReconciled       ActivityAction = "order_reconciled"
)

var validActivityActions = []ActivityAction{
	ActivityRegistryCreated,
	ActivityItemAdded,
	ActivityItemRemoved,
	ActivityItemPurchased,
	ActivityContributionReceived,
	ActivityContributionCompleted,
	ActivityContributionRefunded,
	ActivityOrderReconciled,
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into an ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
