package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

type fakeLock struct {
	held     bool
	denied   bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.denied {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name     string
	interval time.Duration
	err      error
	runs     int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Interval() time.Duration {
	if t.interval <= 0 {
		return time.Hour
	}
	return t.interval
}

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, registry *Registry, lock Lock) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Locks:    func(string) (Lock, error) { return lock, nil },
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunJobExecutesAndReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	job := &testJob{name: "promote"}
	service := newTestService(t, NewRegistry(job), lock)

	service.runJob(context.Background(), job, lock)

	if job.runs != 1 {
		t.Fatalf("expected job to run once, ran %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, released %d", lock.releases)
	}
}

func TestRunJobSkipsWhenLockHeldElsewhere(t *testing.T) {
	lock := &fakeLock{denied: true}
	job := &testJob{name: "promote"}
	service := newTestService(t, NewRegistry(job), lock)

	service.runJob(context.Background(), job, lock)

	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("lock should not be released when never acquired")
	}
}

func TestRunJobFailureStillReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	job := &testJob{name: "cleanup", err: errors.New("boom")}
	service := newTestService(t, NewRegistry(job), lock)

	service.runJob(context.Background(), job, lock)

	if job.runs != 1 {
		t.Fatalf("expected job to run once, ran %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, released %d", lock.releases)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	lock := &fakeLock{}
	job := &testJob{name: "promote", interval: time.Hour}
	service := newTestService(t, NewRegistry(job), lock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestRunRejectsEmptyRegistry(t *testing.T) {
	service := newTestService(t, NewRegistry(), &fakeLock{})
	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected error for empty registry")
	}
}
