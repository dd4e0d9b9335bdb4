package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/narissarah/wishcraft/pkg/enums"
)

// ActivityRecord is an append-only audit entry scoped to a registry.
// Rows are never updated once written.
type ActivityRecord struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegistryID  uuid.UUID            `gorm:"column:registry_id;type:uuid;not null;index:registry_activities_registry_id_idx"`
	ActorName   *string              `gorm:"column:actor_name"`
	ActorEmail  *string              `gorm:"column:actor_email"`
	IsSystem    bool                 `gorm:"column:is_system;not null;default:false"`
	Action      enums.ActivityAction `gorm:"column:action;type:activity_action;not null"`
	Description string               `gorm:"column:description;not null"`
	Metadata    json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime;index:registry_activities_created_at_idx"`
}

// TableName keeps the historical table name.
func (ActivityRecord) TableName() string {
	return "registry_activities"
}
