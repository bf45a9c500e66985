package likes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
)

func setupLikesDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE product_likes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, name, price_cents, is_active) VALUES (?, ?, ?, 1)`,
		id, "sample", 1500).Error)
	return id
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (c *capturingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

type mapProductFinder struct {
	known map[uuid.UUID]*models.Product
}

func (m mapProductFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := m.known[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newLikeService(t *testing.T, db *gorm.DB, productID uuid.UUID, emitter *capturingEmitter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:   sqliteTxRunner{db: db},
		Repo: NewRepository(db),
		Products: mapProductFinder{known: map[uuid.UUID]*models.Product{
			productID: {ID: productID, Name: "sample", PriceCents: 1500, IsActive: true},
		}},
		Outbox: emitter,
	})
	require.NoError(t, err)
	return svc
}

func TestLikeEmitsOnFirstLikeOnly(t *testing.T) {
	db := setupLikesDB(t)
	productID := seedProduct(t, db)
	emitter := &capturingEmitter{}
	svc := newLikeService(t, db, productID, emitter)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, svc.Like(ctx, userID, productID))
	require.NoError(t, svc.Like(ctx, userID, productID))

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventProductLiked, emitter.events[0].EventType)
	assert.Equal(t, enums.AggregateProduct, emitter.events[0].AggregateType)
	assert.Equal(t, productID, emitter.events[0].AggregateID)

	var count int64
	require.NoError(t, db.Model(&models.ProductLike{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUnlikeEmitsOnlyWhenRowExisted(t *testing.T) {
	db := setupLikesDB(t)
	productID := seedProduct(t, db)
	emitter := &capturingEmitter{}
	svc := newLikeService(t, db, productID, emitter)
	ctx := context.Background()
	userID := uuid.New()

	// Nothing to remove yet.
	require.NoError(t, svc.Unlike(ctx, userID, productID))
	assert.Empty(t, emitter.events)

	require.NoError(t, svc.Like(ctx, userID, productID))
	require.NoError(t, svc.Unlike(ctx, userID, productID))

	require.Len(t, emitter.events, 2)
	assert.Equal(t, enums.EventProductUnliked, emitter.events[1].EventType)

	var count int64
	require.NoError(t, db.Model(&models.ProductLike{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestLikeUnknownProduct(t *testing.T) {
	db := setupLikesDB(t)
	productID := seedProduct(t, db)
	emitter := &capturingEmitter{}
	svc := newLikeService(t, db, productID, emitter)

	err := svc.Like(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
	assert.Empty(t, emitter.events)
}

func TestLikeValidatesIDs(t *testing.T) {
	db := setupLikesDB(t)
	productID := seedProduct(t, db)
	svc := newLikeService(t, db, productID, &capturingEmitter{})

	for _, tc := range []struct {
		name      string
		userID    uuid.UUID
		productID uuid.UUID
	}{
		{name: "missing user", userID: uuid.Nil, productID: productID},
		{name: "missing product", userID: uuid.New(), productID: uuid.Nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Like(context.Background(), tc.userID, tc.productID)
			var appErr *pkgerrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestLikeRollsBackRowWhenEmitFails(t *testing.T) {
	db := setupLikesDB(t)
	productID := seedProduct(t, db)
	emitter := &capturingEmitter{err: assert.AnError}
	svc := newLikeService(t, db, productID, emitter)

	require.Error(t, svc.Like(context.Background(), uuid.New(), productID))

	var count int64
	require.NoError(t, db.Model(&models.ProductLike{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
