package events

import (
	"context"
	"sync"
	"time"

	"github.com/minjaecho/commerce-pulse/internal/collector"
)

type acker interface {
	Ack()
	Nack()
}

type entry struct {
	event collector.Event
	msg   acker
}

// batcher buffers decoded events until either the size ceiling is reached
// or the flush interval elapses, then hands the slice to the flush
// callback. Messages stay unacked until their batch settles.
type batcher struct {
	mu       sync.Mutex
	pending  []entry
	capacity int
	interval time.Duration
	flush    func(context.Context, []entry)
}

func newBatcher(capacity int, interval time.Duration, flush func(context.Context, []entry)) *batcher {
	return &batcher{
		capacity: capacity,
		interval: interval,
		flush:    flush,
	}
}

func (b *batcher) add(ctx context.Context, e entry) {
	b.mu.Lock()
	b.pending = append(b.pending, e)
	var full []entry
	if len(b.pending) >= b.capacity {
		full = b.pending
		b.pending = nil
	}
	b.mu.Unlock()
	if len(full) > 0 {
		b.flush(ctx, full)
	}
}

func (b *batcher) take() []entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	pending := b.pending
	b.pending = nil
	return pending
}

// run flushes on the interval until the context is canceled, then nacks
// whatever is left so the transport redelivers it.
func (b *batcher) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			for _, e := range b.take() {
				e.msg.Nack()
			}
			return
		case <-ticker.C:
			if pending := b.take(); len(pending) > 0 {
				b.flush(ctx, pending)
			}
		}
	}
}
