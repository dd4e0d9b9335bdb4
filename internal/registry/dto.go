package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// RegistryDTO is the API shape of a registry.
type RegistryDTO struct {
	ID         uuid.UUID                `json:"id"`
	ShopID     string                   `json:"shopId"`
	CustomerID string                   `json:"customerId"`
	Title      string                   `json:"title"`
	Slug       string                   `json:"slug"`
	EventDate  *time.Time               `json:"eventDate,omitempty"`
	Status     enums.RegistryStatus     `json:"status"`
	Visibility enums.RegistryVisibility `json:"visibility"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

// ItemDTO is the API shape of a registry item.
type ItemDTO struct {
	ID                uuid.UUID                `json:"id"`
	RegistryID        uuid.UUID                `json:"registryId"`
	ProductID         int64                    `json:"productId"`
	VariantID         *int64                   `json:"variantId,omitempty"`
	Title             string                   `json:"title"`
	Quantity          int                      `json:"quantity"`
	QuantityPurchased int                      `json:"quantityPurchased"`
	QuantityRemaining int                      `json:"quantityRemaining"`
	UnitPrice         decimal.Decimal          `json:"unitPrice"`
	CurrencyCode      enums.Currency           `json:"currencyCode"`
	Status            enums.RegistryItemStatus `json:"status"`
	IsGroupGift       bool                     `json:"isGroupGift"`
	GroupGiftTarget   *decimal.Decimal         `json:"groupGiftTarget,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

func toRegistryDTO(registry models.Registry) RegistryDTO {
	return RegistryDTO{
		ID:         registry.ID,
		ShopID:     registry.ShopID,
		CustomerID: registry.CustomerID,
		Title:      registry.Title,
		Slug:       registry.Slug,
		EventDate:  registry.EventDate,
		Status:     registry.Status,
		Visibility: registry.Visibility,
		CreatedAt:  registry.CreatedAt,
		UpdatedAt:  registry.UpdatedAt,
	}
}

func toItemDTO(item models.RegistryItem) ItemDTO {
	remaining := item.Quantity - item.QuantityPurchased
	if remaining < 0 {
		remaining = 0
	}
	return ItemDTO{
		ID:                item.ID,
		RegistryID:        item.RegistryID,
		ProductID:         item.ProductID,
		VariantID:         item.VariantID,
		Title:             item.Title,
		Quantity:          item.Quantity,
		QuantityPurchased: item.QuantityPurchased,
		QuantityRemaining: remaining,
		UnitPrice:         item.UnitPrice,
		CurrencyCode:      item.CurrencyCode,
		Status:            item.Status,
		IsGroupGift:       item.IsGroupGift,
		GroupGiftTarget:   item.GroupGiftTarget,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}
