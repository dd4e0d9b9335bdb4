package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narissarah/wishcraft/pkg/enums"
)

// GroupGiftContribution is one partial payment toward a group-gift purchase.
// Refunded rows stay in place for the audit trail; completion math only sums
// completed rows.
type GroupGiftContribution struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID       uuid.UUID                `gorm:"column:purchase_id;type:uuid;not null;index:group_gift_contributions_purchase_id_idx"`
	ContributorName  *string                  `gorm:"column:contributor_name"`
	ContributorEmail *string                  `gorm:"column:contributor_email"`
	IsAnonymous      bool                     `gorm:"column:is_anonymous;not null;default:false"`
	Amount           decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	CurrencyCode     enums.Currency           `gorm:"column:currency_code;type:text;not null;default:'USD'"`
	PaymentStatus    enums.ContributionStatus `gorm:"column:payment_status;type:contribution_status;not null;default:'pending'"`
	ShowAmount       bool                     `gorm:"column:show_amount;not null;default:true"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
