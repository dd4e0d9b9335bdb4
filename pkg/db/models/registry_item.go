package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/enums"
)

// RegistryItem is one product entry within a registry with a target quantity.
//
// QuantityPurchased is mutated only through the purchase ledger's atomic
// increment; it may exceed Quantity (over-purchase is recorded, the UI warns).
type RegistryItem struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegistryID        uuid.UUID                `gorm:"column:registry_id;type:uuid;not null;index:registry_items_registry_id_idx"`
	ProductID         int64                    `gorm:"column:product_id;not null"`
	VariantID         *int64                   `gorm:"column:variant_id"`
	Title             string                   `gorm:"column:title;not null"`
	Quantity          int                      `gorm:"column:quantity;not null;check:quantity >= 1"`
	QuantityPurchased int                      `gorm:"column:quantity_purchased;not null;default:0;check:quantity_purchased >= 0"`
	UnitPrice         decimal.Decimal          `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CurrencyCode      enums.Currency           `gorm:"column:currency_code;type:text;not null;default:'USD'"`
	Status            enums.RegistryItemStatus `gorm:"column:status;type:registry_item_status;not null;default:'active'"`
	IsGroupGift       bool                     `gorm:"column:is_group_gift;not null;default:false"`
	GroupGiftTarget   *decimal.Decimal         `gorm:"column:group_gift_target;type:numeric(12,2)"`
	Purchases         []Purchase               `gorm:"foreignKey:RegistryItemID;constraint:OnDelete:RESTRICT"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
