package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateRegistry     OutboxAggregateType = "registry"
	AggregateRegistryItem OutboxAggregateType = "registry_item"
	AggregatePurchase     OutboxAggregateType = "purchase"
	AggregateContribution OutboxAggregateType = "contribution"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateRegistry,
	AggregateRegistryItem,
	AggregatePurchase,
	AggregateContribution,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventPurchaseRecorded          OutboxEventType = "purchase_recorded"
	EventContributionReceived      OutboxEventType = "contribution_received"
	EventContributionStatusChanged OutboxEventType = "contribution_status_changed"
	EventItemAdded                 OutboxEventType = "item_added"
	EventItemRemoved               OutboxEventType = "item_removed"
	EventOrderReconciled           OutboxEventType = "order_reconciled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchaseRecorded,
	EventContributionReceived,
	EventContributionStatusChanged,
	EventItemAdded,
	EventItemRemoved,
	EventOrderReconciled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
