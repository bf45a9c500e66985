package cron

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/registry"
)

const (
	defaultRequeueBatchSize   = 100
	defaultRequeueMaxAttempts = 10
	defaultRequeueInterval    = time.Hour
	requeuePublishTimeout     = 15 * time.Second
)

type outboxRequeueRepo interface {
	FetchFailed(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	RecordFailedAttempt(id uuid.UUID, err error) error
}

type requeueResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type topicPublisherClient interface {
	Publisher(name string) *gcppubsub.Publisher
}

// OutboxRequeueJobParams configure the failed-row republish job.
type OutboxRequeueJobParams struct {
	Logger      *logger.Logger
	Repository  outboxRequeueRepo
	Registry    requeueResolver
	PubSub      topicPublisherClient
	BatchSize   int
	MaxAttempts int
	Cadence     time.Duration
}

// NewOutboxRequeueJob builds the job that retries failed outbox rows
// whose attempt count is still below the ceiling. Rows at the ceiling
// are left for manual intervention.
func NewOutboxRequeueJob(params OutboxRequeueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if params.PubSub == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultRequeueBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultRequeueMaxAttempts
	}
	cadence := params.Cadence
	if cadence <= 0 {
		cadence = defaultRequeueInterval
	}
	return &outboxRequeueJob{
		logg:        params.Logger,
		repo:        params.Repository,
		registry:    params.Registry,
		pubsub:      params.PubSub,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		cadence:     cadence,
	}, nil
}

type outboxRequeueJob struct {
	logg        *logger.Logger
	repo        outboxRequeueRepo
	registry    requeueResolver
	pubsub      topicPublisherClient
	batchSize   int
	maxAttempts int
	cadence     time.Duration
}

func (j *outboxRequeueJob) Name() string { return "outbox-requeue" }

func (j *outboxRequeueJob) Interval() time.Duration { return j.cadence }

func (j *outboxRequeueJob) Run(ctx context.Context) error {
	events, err := j.repo.FetchFailed(j.batchSize, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("fetch failed rows: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var republished, stillFailed int
	for _, event := range events {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"outbox_id":     event.ID.String(),
			"event_type":    event.EventType,
			"attempt_count": event.AttemptCount,
		})

		resolved, err := j.registry.Resolve(event)
		if err != nil {
			j.logg.Warn(j.logg.WithField(logCtx, "error", err.Error()), "failed row cannot be resolved")
			if recErr := j.repo.RecordFailedAttempt(event.ID, err); recErr != nil {
				return fmt.Errorf("record failed attempt %s: %w", event.ID, recErr)
			}
			stillFailed++
			continue
		}

		if err := j.publish(ctx, event, resolved); err != nil {
			j.logg.Warn(j.logg.WithField(logCtx, "error", err.Error()), "requeue publish failed")
			if recErr := j.repo.RecordFailedAttempt(event.ID, err); recErr != nil {
				return fmt.Errorf("record failed attempt %s: %w", event.ID, recErr)
			}
			stillFailed++
			continue
		}

		if err := j.repo.MarkPublished(event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		republished++
		j.logg.Info(logCtx, "failed outbox row republished")
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"fetched":      len(events),
		"republished":  republished,
		"still_failed": stillFailed,
	})
	j.logg.Info(logCtx, "outbox requeue cycle complete")
	return nil
}

func (j *outboxRequeueJob) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	pub := j.pubsub.Publisher(resolved.Descriptor.Topic)
	if pub == nil {
		return fmt.Errorf("publisher not configured for topic %s", resolved.Descriptor.Topic)
	}
	pub.EnableMessageOrdering = true

	msg := &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: event.AggregateID.String(),
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, requeuePublishTimeout)
	defer cancel()
	if _, err := pub.Publish(publishCtx, msg).Get(publishCtx); err != nil {
		return err
	}
	return nil
}
