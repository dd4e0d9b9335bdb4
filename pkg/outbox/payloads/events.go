package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRecordedEvent is emitted when a Shopify order line item is
// reconciled into a purchase row for the first time.
type PurchaseRecordedEvent struct {
	PurchaseID  uuid.UUID       `json:"purchaseId"`
	RegistryID  uuid.UUID       `json:"registryId"`
	ItemID      uuid.UUID       `json:"itemId"`
	ShopID      string          `json:"shopId"`
	OrderID     int64           `json:"orderId"`
	LineItemID  int64           `json:"lineItemId"`
	OrderNumber string          `json:"orderNumber,omitempty"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	IsGroupGift bool            `json:"isGroupGift"`
	PurchasedAt time.Time       `json:"purchasedAt"`
}

// ContributionReceivedEvent is emitted when a group gift contribution row
// is created.
type ContributionReceivedEvent struct {
	ContributionID uuid.UUID       `json:"contributionId"`
	PurchaseID     uuid.UUID       `json:"purchaseId"`
	RegistryID     uuid.UUID       `json:"registryId"`
	ItemID         uuid.UUID       `json:"itemId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IsAnonymous    bool            `json:"isAnonymous"`
}

// ContributionStatusChangedEvent is emitted on every contribution payment
// status transition.
type ContributionStatusChangedEvent struct {
	ContributionID uuid.UUID       `json:"contributionId"`
	PurchaseID     uuid.UUID       `json:"purchaseId"`
	RegistryID     uuid.UUID       `json:"registryId"`
	ItemID         uuid.UUID       `json:"itemId"`
	FromStatus     string          `json:"fromStatus"`
	ToStatus       string          `json:"toStatus"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// ItemAddedEvent is emitted when an item is added to a registry.
type ItemAddedEvent struct {
	RegistryID uuid.UUID       `json:"registryId"`
	ItemID     uuid.UUID       `json:"itemId"`
	ShopID     string          `json:"shopId"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// ItemRemovedEvent is emitted when an item is removed from a registry.
type ItemRemovedEvent struct {
	RegistryID uuid.UUID `json:"registryId"`
	ItemID     uuid.UUID `json:"itemId"`
	ShopID     string    `json:"shopId"`
	Title      string    `json:"title"`
}

// OrderReconciledEvent summarizes one processed orders/create delivery.
type OrderReconciledEvent struct {
	RegistryID uuid.UUID `json:"registryId"`
	ShopID     string    `json:"shopId"`
	OrderID    int64     `json:"orderId"`
	Recorded   int       `json:"recorded"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
}
