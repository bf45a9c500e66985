package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
)

// EventHandled is the insert-only dedup ledger consulted by consumers.
// The unique index on event_id is the hard backstop against racing
// duplicates; inserts use ON CONFLICT DO NOTHING.
type EventHandled struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID       string                    `gorm:"column:event_id;not null;uniqueIndex:events_handled_event_id_key"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   string                    `gorm:"column:aggregate_id;not null"`
	HandledAt     time.Time                 `gorm:"column:handled_at;autoCreateTime"`
}

func (EventHandled) TableName() string {
	return "events_handled"
}
