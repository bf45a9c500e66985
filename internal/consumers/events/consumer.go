package events

import (
	"context"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/minjaecho/commerce-pulse/internal/collector"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

const (
	defaultBatchSize     = 200
	defaultFlushInterval = 250 * time.Millisecond
)

type subscription interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type batchHandler interface {
	ProcessBatch(ctx context.Context, events []collector.Event) error
}

// ConsumerParams groups dependencies for one event-family consumer.
type ConsumerParams struct {
	Logger        *logger.Logger
	Subscription  subscription
	Handler       batchHandler
	Family        string
	BatchSize     int
	FlushInterval time.Duration
}

// Consumer drains one subscription into the batch handler. Malformed
// messages are acked and dropped; a failed batch is nacked whole so the
// transport redelivers every message in it.
type Consumer struct {
	logg          *logger.Logger
	subscription  subscription
	handler       batchHandler
	family        string
	batchSize     int
	flushInterval time.Duration
}

// NewConsumer builds a consumer for a single event family.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Subscription == nil {
		return nil, errors.New("subscription is required")
	}
	if params.Handler == nil {
		return nil, errors.New("batch handler is required")
	}
	if params.Family == "" {
		return nil, errors.New("family name is required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := params.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return &Consumer{
		logg:          params.Logger,
		subscription:  params.Subscription,
		handler:       params.Handler,
		family:        params.Family,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}, nil
}

// Run processes messages until the context is canceled or the
// subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	b := newBatcher(c.batchSize, c.flushInterval, c.flushBatch)
	go b.run(ctx)

	return c.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		event, err := DecodeEvent(msg.Data)
		if err != nil {
			logCtx := c.logg.WithFields(msgCtx, map[string]any{
				"family":     c.family,
				"message_id": msg.ID,
			})
			c.logg.Warn(logCtx, "dropping malformed message: "+err.Error())
			msg.Ack()
			return
		}
		b.add(msgCtx, entry{event: event, msg: msg})
	})
}

func (c *Consumer) flushBatch(ctx context.Context, entries []entry) {
	events := make([]collector.Event, 0, len(entries))
	for _, e := range entries {
		events = append(events, e.event)
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"family":     c.family,
		"batch_size": len(events),
	})
	if err := c.handler.ProcessBatch(ctx, events); err != nil {
		c.logg.Error(logCtx, "batch failed, redelivering", err)
		for _, e := range entries {
			e.msg.Nack()
		}
		return
	}
	for _, e := range entries {
		e.msg.Ack()
	}
}
