package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromClient(raw)
}

func TestIncrWithTTL(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	key := client.CounterKey("hits")
	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}

	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected counter 2 got %d", count)
	}
}

func TestSortedSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	key := client.RankingKey("like", "20260901")
	if err := client.ZIncrBy(ctx, key, 0.2, "product-a"); err != nil {
		t.Fatalf("zincrby failed: %v", err)
	}
	if err := client.ZIncrBy(ctx, key, 0.6, "product-b"); err != nil {
		t.Fatalf("zincrby failed: %v", err)
	}

	entries, err := client.ZRevRangeWithScores(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("zrevrange failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Member != "product-b" {
		t.Fatalf("unexpected leaderboard order: %+v", entries)
	}

	rank, err := client.ZRevRank(ctx, key, "product-a")
	if err != nil {
		t.Fatalf("zrevrank failed: %v", err)
	}
	if rank != 1 {
		t.Fatalf("expected rank 1 got %d", rank)
	}

	if _, err := client.ZScore(ctx, key, "missing"); err != redis.Nil {
		t.Fatalf("expected redis.Nil for missing member, got %v", err)
	}

	card, err := client.ZCard(ctx, key)
	if err != nil {
		t.Fatalf("zcard failed: %v", err)
	}
	if card != 2 {
		t.Fatalf("expected cardinality 2 got %d", card)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.LockKey("cron"); got != "cp:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.CounterKey("hits"); got != "cp:counter:hits" {
		t.Fatalf("unexpected counter key %s", got)
	}
	if got := client.RankingKey("all", "20260901"); got != "cp:ranking:all:20260901" {
		t.Fatalf("unexpected ranking key %s", got)
	}
}
