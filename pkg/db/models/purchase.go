package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/enums"
)

// Purchase records one Shopify order line item reconciled against a registry
// item. The (order_id, line_item_id) unique key is the idempotency gate for
// webhook redelivery; a conflicting insert means the line item was already
// processed.
type Purchase struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegistryItemID uuid.UUID               `gorm:"column:registry_item_id;type:uuid;not null;index:registry_purchases_item_id_idx"`
	OrderID        int64                   `gorm:"column:order_id;not null;uniqueIndex:registry_purchases_order_line_item_key"`
	LineItemID     int64                   `gorm:"column:line_item_id;not null;uniqueIndex:registry_purchases_order_line_item_key"`
	OrderName      *string                 `gorm:"column:order_name"`
	Quantity       int                     `gorm:"column:quantity;not null;check:quantity >= 1"`
	UnitPrice      decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount    decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CurrencyCode   enums.Currency          `gorm:"column:currency_code;type:text;not null;default:'USD'"`
	PurchaserName  *string                 `gorm:"column:purchaser_name"`
	PurchaserEmail *string                 `gorm:"column:purchaser_email"`
	GiftMessage    *string                 `gorm:"column:gift_message"`
	PaymentStatus  enums.PaymentStatus     `gorm:"column:payment_status;type:purchase_payment_status;not null;default:'paid'"`
	Fulfillment    enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:purchase_fulfillment_status;not null;default:'unfulfilled'"`
	IsGroupGift    bool                    `gorm:"column:is_group_gift;not null;default:false"`
	GroupGiftID    *uuid.UUID              `gorm:"column:group_gift_id;type:uuid"`
	Contributions  []GroupGiftContribution `gorm:"foreignKey:PurchaseID;constraint:OnDelete:RESTRICT"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the historical table name.
func (Purchase) TableName() string {
	return "registry_purchases"
}
