package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// PurchaseDTO is the API shape of one reconciled purchase.
type PurchaseDTO struct {
	ID             uuid.UUID               `json:"id"`
	RegistryID     uuid.UUID               `json:"registryId"`
	RegistryItemID uuid.UUID               `json:"registryItemId"`
	OrderID        int64                   `json:"orderId"`
	LineItemID     int64                   `json:"lineItemId"`
	OrderName      *string                 `json:"orderName,omitempty"`
	Quantity       int                     `json:"quantity"`
	UnitPrice      decimal.Decimal         `json:"unitPrice"`
	TotalAmount    decimal.Decimal         `json:"totalAmount"`
	CurrencyCode   enums.Currency          `json:"currencyCode"`
	PurchaserName  *string                 `json:"purchaserName,omitempty"`
	PurchaserEmail *string                 `json:"purchaserEmail,omitempty"`
	GiftMessage    *string                 `json:"giftMessage,omitempty"`
	PaymentStatus  enums.PaymentStatus     `json:"paymentStatus"`
	Fulfillment    enums.FulfillmentStatus `json:"fulfillmentStatus"`
	IsGroupGift    bool                    `json:"isGroupGift"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// PurchasePageDTO is one cursor page of purchases, newest first.
type PurchasePageDTO struct {
	Items      []PurchaseDTO `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// RecordResult reports the outcome of recording one order line item.
type RecordResult struct {
	Purchase        PurchaseDTO
	AlreadyRecorded bool
}

func toDTO(purchase models.Purchase, registryID uuid.UUID) PurchaseDTO {
	return PurchaseDTO{
		ID:             purchase.ID,
		RegistryID:     registryID,
		RegistryItemID: purchase.RegistryItemID,
		OrderID:        purchase.OrderID,
		LineItemID:     purchase.LineItemID,
		OrderName:      purchase.OrderName,
		Quantity:       purchase.Quantity,
		UnitPrice:      purchase.UnitPrice,
		TotalAmount:    purchase.TotalAmount,
		CurrencyCode:   purchase.CurrencyCode,
		PurchaserName:  purchase.PurchaserName,
		PurchaserEmail: purchase.PurchaserEmail,
		GiftMessage:    purchase.GiftMessage,
		PaymentStatus:  purchase.PaymentStatus,
		Fulfillment:    purchase.Fulfillment,
		IsGroupGift:    purchase.IsGroupGift,
		CreatedAt:      purchase.CreatedAt,
	}
}
