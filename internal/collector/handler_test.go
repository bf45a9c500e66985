package collector

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/internal/handled"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/payloads"
)

func setupCollectorDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	eventsHandled := `
CREATE TABLE events_handled (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  handled_at DATETIME
);`
	productMetrics := `
CREATE TABLE product_metrics (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL UNIQUE,
  like_count INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  order_count INTEGER NOT NULL DEFAULT 0,
  total_order_quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	productMetricsDaily := `
CREATE TABLE product_metrics_daily (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  metric_date DATETIME NOT NULL,
  like_delta INTEGER NOT NULL DEFAULT 0,
  view_delta INTEGER NOT NULL DEFAULT 0,
  order_delta INTEGER NOT NULL DEFAULT 0,
  order_quantity_delta INTEGER NOT NULL DEFAULT 0,
  is_processed INTEGER NOT NULL DEFAULT 0,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, metric_date)
);`
	require.NoError(t, db.Exec(eventsHandled).Error)
	require.NoError(t, db.Exec(productMetrics).Error)
	require.NoError(t, db.Exec(productMetricsDaily).Error)
	return db
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestHandler(t *testing.T, db *gorm.DB) *Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "collector-test"})
	handler, err := NewHandler(HandlerParams{
		Logger:      logg,
		DB:          sqliteTxRunner{db: db},
		HandledRepo: handled.NewRepository(db),
		MetricsRepo: metrics.NewRepository(db),
		Now:         func() time.Time { return time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return handler
}

func likeEvent(productID uuid.UUID) Event {
	return Event{ID: uuid.NewString(), Type: enums.EventProductLiked, ProductID: productID}
}

func fetchCounters(t *testing.T, db *gorm.DB, productID uuid.UUID) models.ProductMetrics {
	t.Helper()

	var row models.ProductMetrics
	require.NoError(t, db.Where("product_id = ?", productID).First(&row).Error)
	return row
}

func TestProcessBatchFoldsDeltas(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	productID := uuid.New()

	events := []Event{
		likeEvent(productID),
		likeEvent(productID),
		{ID: uuid.NewString(), Type: enums.EventProductViewed, ProductID: productID},
	}
	require.NoError(t, handler.ProcessBatch(context.Background(), events))

	counters := fetchCounters(t, db, productID)
	assert.EqualValues(t, 2, counters.LikeCount)
	assert.EqualValues(t, 1, counters.ViewCount)

	var daily models.ProductMetricsDaily
	require.NoError(t, db.Where("product_id = ?", productID).First(&daily).Error)
	assert.EqualValues(t, 2, daily.LikeDelta)
	assert.EqualValues(t, 1, daily.ViewDelta)
	assert.False(t, daily.IsProcessed)

	var handledCount int64
	require.NoError(t, db.Model(&models.EventHandled{}).Count(&handledCount).Error)
	assert.EqualValues(t, 3, handledCount)
}

func TestProcessBatchIsIdempotentAcrossRedelivery(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	productID := uuid.New()

	events := []Event{likeEvent(productID)}
	require.NoError(t, handler.ProcessBatch(context.Background(), events))
	require.NoError(t, handler.ProcessBatch(context.Background(), events))

	counters := fetchCounters(t, db, productID)
	assert.EqualValues(t, 1, counters.LikeCount)

	var handledCount int64
	require.NoError(t, db.Model(&models.EventHandled{}).Count(&handledCount).Error)
	assert.EqualValues(t, 1, handledCount)
}

func TestProcessBatchFirstOccurrenceWinsWithinBatch(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	productID := uuid.New()

	event := likeEvent(productID)
	require.NoError(t, handler.ProcessBatch(context.Background(), []Event{event, event}))

	counters := fetchCounters(t, db, productID)
	assert.EqualValues(t, 1, counters.LikeCount)
}

func TestProcessBatchSuppressesNetZeroEntities(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	productID := uuid.New()

	events := []Event{
		likeEvent(productID),
		{ID: uuid.NewString(), Type: enums.EventProductUnliked, ProductID: productID},
	}
	require.NoError(t, handler.ProcessBatch(context.Background(), events))

	var counterRows int64
	require.NoError(t, db.Model(&models.ProductMetrics{}).Count(&counterRows).Error)
	assert.Zero(t, counterRows)

	// The events still count as handled so a redelivery stays silent.
	var handledCount int64
	require.NoError(t, db.Model(&models.EventHandled{}).Count(&handledCount).Error)
	assert.EqualValues(t, 2, handledCount)
}

func TestProcessBatchAggregatesOrderMetrics(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	productID := uuid.New()

	events := make([]Event, 0, 3)
	for i := 0; i < 3; i++ {
		events = append(events, Event{
			ID:      uuid.NewString(),
			Type:    enums.EventOrderCreated,
			OrderID: uuid.New(),
			Items:   []payloads.OrderItemPayload{{ProductID: productID, Quantity: 2}},
		})
	}
	require.NoError(t, handler.ProcessBatch(context.Background(), events))

	counters := fetchCounters(t, db, productID)
	assert.EqualValues(t, 3, counters.OrderCount)
	assert.EqualValues(t, 6, counters.TotalOrderQuantity)
}

func TestProcessBatchRecordsOrderAggregate(t *testing.T) {
	db := setupCollectorDB(t)
	handler := newTestHandler(t, db)
	orderID := uuid.New()

	events := []Event{{
		ID:      uuid.NewString(),
		Type:    enums.EventOrderCreated,
		OrderID: orderID,
		Items:   []payloads.OrderItemPayload{{ProductID: uuid.New(), Quantity: 1}},
	}}
	require.NoError(t, handler.ProcessBatch(context.Background(), events))

	var row models.EventHandled
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.AggregateOrder, row.AggregateType)
	assert.Equal(t, orderID.String(), row.AggregateID)
}
