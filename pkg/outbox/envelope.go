package outbox

import (
	"encoding/json"
	"time"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
)

// PayloadEnvelope is the stable payload structure stored in outbox_events
// and published on the wire.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"eventId"`
	EventType  enums.OutboxEventType `json:"eventType"`
	OccurredAt time.Time             `json:"occurredAt"`
	Data       json.RawMessage       `json:"payload"`
}
