package collector

import (
	"time"

	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/payloads"
)

// Event is one decoded interaction event pulled off a subscription.
// ProductID is set for like, unlike and view events; Items only for
// order events.
type Event struct {
	ID         string
	Type       enums.OutboxEventType
	OccurredAt time.Time
	ProductID  uuid.UUID
	OrderID    uuid.UUID
	Items      []payloads.OrderItemPayload
}

// AggregateType returns the aggregate family the event belongs to.
func (e Event) AggregateType() enums.OutboxAggregateType {
	if e.Type == enums.EventOrderCreated {
		return enums.AggregateOrder
	}
	return enums.AggregateProduct
}

// AggregateID returns the id recorded in the handled ledger.
func (e Event) AggregateID() string {
	if e.Type == enums.EventOrderCreated {
		return e.OrderID.String()
	}
	return e.ProductID.String()
}
