package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/narissarah/wishcraft/pkg/db/models"
	"github.com/narissarah/wishcraft/pkg/enums"
)

// ActivityDTO is the API shape of one audit entry.
type ActivityDTO struct {
	ID          uuid.UUID            `json:"id"`
	RegistryID  uuid.UUID            `json:"registryId"`
	ActorName   *string              `json:"actorName,omitempty"`
	ActorEmail  *string              `json:"actorEmail,omitempty"`
	IsSystem    bool                 `json:"isSystem"`
	Action      enums.ActivityAction `json:"action"`
	Description string               `json:"description"`
	Metadata    json.RawMessage      `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ActivityPageDTO is one cursor page of audit entries, newest first.
type ActivityPageDTO struct {
	Items      []ActivityDTO `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func toDTO(record models.ActivityRecord) ActivityDTO {
	return ActivityDTO{
		ID:          record.ID,
		RegistryID:  record.RegistryID,
		ActorName:   record.ActorName,
		ActorEmail:  record.ActorEmail,
		IsSystem:    record.IsSystem,
		Action:      record.Action,
		Description: record.Description,
		Metadata:    record.Metadata,
		CreatedAt:   record.CreatedAt,
	}
}
