package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. Events emitted by the
// reconciliation pipeline or workers set System instead of a name.
type ActorRef struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	System bool   `json:"system,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
