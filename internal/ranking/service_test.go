package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/redis"
)

func setupService(t *testing.T) Service {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	store, err := NewStore(client)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Store: store,
		Now:   func() time.Time { return testDay },
	})
	require.NoError(t, err)
	return svc
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestTopNRejectsOutOfRangeLimits(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.TopN(ctx, enums.RankingAll, testDay, 0)
	assertValidationError(t, err)

	_, err = svc.TopN(ctx, enums.RankingAll, testDay, 101)
	assertValidationError(t, err)
}

func TestTopNRejectsUnknownFamily(t *testing.T) {
	svc := setupService(t)

	_, err := svc.TopN(context.Background(), enums.RankingType("bogus"), testDay, 10)
	assertValidationError(t, err)
}

func TestPageRejectsBadPaging(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Page(ctx, enums.RankingAll, testDay, 0, 10)
	assertValidationError(t, err)

	_, err = svc.Page(ctx, enums.RankingAll, testDay, 1, 101)
	assertValidationError(t, err)
}

func TestLookupRequiresProductID(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Lookup(context.Background(), enums.RankingAll, testDay, uuid.Nil)
	assertValidationError(t, err)
}

func TestLookupAbsentProductIsNotAnError(t *testing.T) {
	svc := setupService(t)

	entry, err := svc.Lookup(context.Background(), enums.RankingAll, testDay, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPageDefaultsDateToToday(t *testing.T) {
	svc := setupService(t)

	result, err := svc.Page(context.Background(), enums.RankingAll, time.Time{}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
}
