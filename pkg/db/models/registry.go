package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/narissarah/wishcraft/pkg/enums"
)

// Registry is a customer's gift registry within a merchant shop.
type Registry struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID     string                   `gorm:"column:shop_id;not null;index:registries_shop_id_idx;uniqueIndex:registries_shop_slug_key"`
	CustomerID string                   `gorm:"column:customer_id;not null;index:registries_customer_id_idx"`
	Title      string                   `gorm:"column:title;not null"`
	Slug       string                   `gorm:"column:slug;not null;uniqueIndex:registries_shop_slug_key"`
	EventDate  *time.Time               `gorm:"column:event_date"`
	Status     enums.RegistryStatus     `gorm:"column:status;type:registry_status;not null;default:'active'"`
	Visibility enums.RegistryVisibility `gorm:"column:visibility;type:registry_visibility;not null;default:'public'"`
	Items      []RegistryItem           `gorm:"foreignKey:RegistryID;constraint:OnDelete:CASCADE"`
	Activities []ActivityRecord         `gorm:"foreignKey:RegistryID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
