package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/redis"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	store, err := NewStore(client)
	require.NoError(t, err)
	return store, mr
}

var testDay = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestApplyIncrementsWritesAllFamilies(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	inc := Increments{
		Like:      map[string]float64{"p1": 0.4},
		View:      map[string]float64{"p1": 0.1},
		Order:     map[string]float64{"p2": 1.2},
		Composite: map[string]float64{"p1": 0.5, "p2": 1.2},
	}
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, 48*time.Hour))

	score, err := store.client.ZScore(ctx, "cp:ranking:like:20260314", "p1")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, score, 1e-9)

	score, err = store.client.ZScore(ctx, "cp:ranking:all:20260314", "p2")
	require.NoError(t, err)
	assert.InDelta(t, 1.2, score, 1e-9)

	ttl := mr.TTL("cp:ranking:order:20260314")
	assert.Equal(t, 48*time.Hour, ttl)
}

func TestApplyIncrementsAccumulates(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	inc := Increments{Like: map[string]float64{"p1": 0.2}}
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, time.Hour))
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, time.Hour))

	score, err := store.client.ZScore(ctx, "cp:ranking:like:20260314", "p1")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, score, 1e-9)
}

func TestTopNOrdersByScoreDescending(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	inc := Increments{Composite: map[string]float64{"p1": 1.0, "p2": 3.0, "p3": 2.0}}
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, time.Hour))

	ranked, err := store.TopN(ctx, enums.RankingAll, testDay, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "p2", ranked[0].ProductID)
	assert.EqualValues(t, 1, ranked[0].Rank)
	assert.Equal(t, "p3", ranked[1].ProductID)
	assert.EqualValues(t, 2, ranked[1].Rank)
}

func TestPageOffsetsRanks(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	inc := Increments{View: map[string]float64{"p1": 4, "p2": 3, "p3": 2, "p4": 1}}
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, time.Hour))

	ranked, err := store.Page(ctx, enums.RankingView, testDay, 2, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "p3", ranked[0].ProductID)
	assert.EqualValues(t, 3, ranked[0].Rank)
}

func TestLookupMissingMemberReturnsNil(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	entry, err := store.Lookup(ctx, enums.RankingLike, testDay, "ghost")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLookupReturnsOneBasedRank(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	inc := Increments{Order: map[string]float64{"p1": 2.4, "p2": 0.6}}
	require.NoError(t, store.ApplyIncrements(ctx, testDay, inc, time.Hour))

	entry, err := store.Lookup(ctx, enums.RankingOrder, testDay, "p2")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.EqualValues(t, 2, entry.Rank)
	assert.InDelta(t, 0.6, entry.Score, 1e-9)
}
