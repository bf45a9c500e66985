package cron

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/registry"
)

type fakeRequeueRepo struct {
	failed     []models.OutboxEvent
	fetchErr   error
	published  []uuid.UUID
	reattempts []uuid.UUID
}

func (f *fakeRequeueRepo) FetchFailed(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.failed, nil
}

func (f *fakeRequeueRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRequeueRepo) RecordFailedAttempt(id uuid.UUID, err error) error {
	f.reattempts = append(f.reattempts, id)
	return nil
}

type fakeRequeueResolver struct {
	err error
}

func (f *fakeRequeueResolver) Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "product-events"},
	}, nil
}

// nilPublisherClient has no publisher wired for any topic, so every
// publish attempt fails without reaching the network.
type nilPublisherClient struct{}

func (nilPublisherClient) Publisher(string) *gcppubsub.Publisher { return nil }

func newRequeueJob(t *testing.T, repo *fakeRequeueRepo, resolver *fakeRequeueResolver) *outboxRequeueJob {
	t.Helper()
	jobIface, err := NewOutboxRequeueJob(OutboxRequeueJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Registry:   resolver,
		PubSub:     nilPublisherClient{},
	})
	if err != nil {
		t.Fatalf("NewOutboxRequeueJob: %v", err)
	}
	job, ok := jobIface.(*outboxRequeueJob)
	if !ok {
		t.Fatalf("expected outboxRequeueJob, got %T", jobIface)
	}
	return job
}

func failedEvent() models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventProductLiked,
		AggregateType: enums.AggregateProduct,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		Status:        enums.OutboxStatusFailed,
		AttemptCount:  2,
	}
}

func TestOutboxRequeueJobNoFailedRows(t *testing.T) {
	repo := &fakeRequeueRepo{}
	job := newRequeueJob(t, repo, &fakeRequeueResolver{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.published) != 0 || len(repo.reattempts) != 0 {
		t.Fatal("expected no repo writes for empty fetch")
	}
}

func TestOutboxRequeueJobRecordsUnresolvableRows(t *testing.T) {
	event := failedEvent()
	repo := &fakeRequeueRepo{failed: []models.OutboxEvent{event}}
	job := newRequeueJob(t, repo, &fakeRequeueResolver{err: errors.New("no descriptor")})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.reattempts) != 1 || repo.reattempts[0] != event.ID {
		t.Fatalf("expected one recorded attempt for %s, got %v", event.ID, repo.reattempts)
	}
	if len(repo.published) != 0 {
		t.Fatal("unresolvable row must not be marked published")
	}
}

func TestOutboxRequeueJobRecordsPublishFailure(t *testing.T) {
	event := failedEvent()
	repo := &fakeRequeueRepo{failed: []models.OutboxEvent{event}}
	job := newRequeueJob(t, repo, &fakeRequeueResolver{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.reattempts) != 1 {
		t.Fatalf("expected publish failure recorded, got %v", repo.reattempts)
	}
	if len(repo.published) != 0 {
		t.Fatal("row must stay failed when publish does not succeed")
	}
}

func TestOutboxRequeueJobPropagatesFetchError(t *testing.T) {
	repo := &fakeRequeueRepo{fetchErr: errors.New("db down")}
	job := newRequeueJob(t, repo, &fakeRequeueResolver{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
