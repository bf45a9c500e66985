package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/internal/collector"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/payloads"
)

// DecodeEvent parses a wire envelope into a collector event. Any error here
// marks the message as poison; callers ack and drop it.
func DecodeEvent(data []byte) (collector.Event, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return collector.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if envelope.EventID == "" {
		return collector.Event{}, fmt.Errorf("envelope missing event id")
	}
	if !envelope.EventType.IsValid() {
		return collector.Event{}, fmt.Errorf("unknown event type %q", envelope.EventType)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return collector.Event{}, fmt.Errorf("envelope missing payload")
	}

	event := collector.Event{
		ID:         envelope.EventID,
		Type:       envelope.EventType,
		OccurredAt: envelope.OccurredAt,
	}

	switch envelope.EventType {
	case enums.EventProductLiked:
		var payload payloads.ProductLikedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return collector.Event{}, fmt.Errorf("unmarshal like payload: %w", err)
		}
		event.ProductID = payload.ProductID
	case enums.EventProductUnliked:
		var payload payloads.ProductUnlikedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return collector.Event{}, fmt.Errorf("unmarshal unlike payload: %w", err)
		}
		event.ProductID = payload.ProductID
	case enums.EventProductViewed:
		var payload payloads.ProductViewedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return collector.Event{}, fmt.Errorf("unmarshal view payload: %w", err)
		}
		event.ProductID = payload.ProductID
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return collector.Event{}, fmt.Errorf("unmarshal order payload: %w", err)
		}
		if payload.OrderID == uuid.Nil {
			return collector.Event{}, fmt.Errorf("order payload missing order id")
		}
		event.OrderID = payload.OrderID
		// Malformed line items are dropped individually so one bad line
		// does not poison the rest of the order.
		items := make([]payloads.OrderItemPayload, 0, len(payload.Items))
		for _, item := range payload.Items {
			if item.ProductID == uuid.Nil {
				continue
			}
			items = append(items, item)
		}
		event.Items = items
	}

	if envelope.EventType != enums.EventOrderCreated && event.ProductID == uuid.Nil {
		return collector.Event{}, fmt.Errorf("payload missing product id")
	}
	return event, nil
}
