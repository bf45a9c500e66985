package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
)

// Repository persists running counters and daily ledgers for products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a metrics repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ApplyCounterDeltas folds the deltas into product_metrics with one
// multi-row additive upsert. Increments commute, so concurrent batches
// never clobber each other.
func (r *Repository) ApplyCounterDeltas(ctx context.Context, deltas []Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	now := time.Now().UTC()
	var sb strings.Builder
	sb.WriteString("INSERT INTO product_metrics (id, product_id, like_count, view_count, order_count, total_order_quantity, created_at, updated_at) VALUES ")
	args := make([]any, 0, len(deltas)*8)
	for i, d := range deltas {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, uuid.New(), d.ProductID, d.LikeDelta, d.ViewDelta, d.OrderDelta, d.OrderQuantityDelta, now, now)
	}
	sb.WriteString(" ON CONFLICT (product_id) DO UPDATE SET" +
		" like_count = like_count + excluded.like_count," +
		" view_count = view_count + excluded.view_count," +
		" order_count = order_count + excluded.order_count," +
		" total_order_quantity = total_order_quantity + excluded.total_order_quantity," +
		" updated_at = excluded.updated_at")
	return r.db.WithContext(ctx).Exec(sb.String(), args...).Error
}

// ApplyDailyDeltas folds the deltas into the product_metrics_daily ledger
// for the given day, creating rows for products first seen that day.
func (r *Repository) ApplyDailyDeltas(ctx context.Context, date time.Time, deltas []Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	day := DateOnly(date)
	now := time.Now().UTC()
	var sb strings.Builder
	sb.WriteString("INSERT INTO product_metrics_daily (id, product_id, metric_date, like_delta, view_delta, order_delta, order_quantity_delta, is_processed, created_at, updated_at) VALUES ")
	args := make([]any, 0, len(deltas)*10)
	for i, d := range deltas {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, uuid.New(), d.ProductID, day, d.LikeDelta, d.ViewDelta, d.OrderDelta, d.OrderQuantityDelta, false, now, now)
	}
	sb.WriteString(" ON CONFLICT (product_id, metric_date) DO UPDATE SET" +
		" like_delta = like_delta + excluded.like_delta," +
		" view_delta = view_delta + excluded.view_delta," +
		" order_delta = order_delta + excluded.order_delta," +
		" order_quantity_delta = order_quantity_delta + excluded.order_quantity_delta," +
		" is_processed = ?," +
		" processed_at = NULL," +
		" updated_at = excluded.updated_at")
	args = append(args, false)
	return r.db.WithContext(ctx).Exec(sb.String(), args...).Error
}

// FetchUnprocessed returns the unprocessed daily rows for one day.
func (r *Repository) FetchUnprocessed(ctx context.Context, date time.Time) ([]models.ProductMetricsDaily, error) {
	var rows []models.ProductMetricsDaily
	err := r.db.WithContext(ctx).
		Where("metric_date = ? AND is_processed = ?", DateOnly(date), false).
		Order("product_id ASC").
		Find(&rows).Error
	return rows, err
}

// DrainProcessed subtracts the promoted snapshot from each daily row and
// flips is_processed only when the row nets to zero. Deltas written by a
// consumer between the promoter's read and this update stay pending, so
// nothing promoted is ever counted twice and nothing pending is lost.
// processed_at moves with the flip; a row that stays pending keeps its
// previous timestamp.
func (r *Repository) DrainProcessed(ctx context.Context, rows []models.ProductMetricsDaily, at time.Time) error {
	for _, row := range rows {
		err := r.db.WithContext(ctx).Exec(
			"UPDATE product_metrics_daily SET"+
				" like_delta = like_delta - ?,"+
				" view_delta = view_delta - ?,"+
				" order_delta = order_delta - ?,"+
				" order_quantity_delta = order_quantity_delta - ?,"+
				" is_processed = (like_delta = ? AND view_delta = ? AND order_delta = ? AND order_quantity_delta = ?),"+
				" processed_at = CASE WHEN (like_delta = ? AND view_delta = ? AND order_delta = ? AND order_quantity_delta = ?) THEN ? ELSE processed_at END,"+
				" updated_at = ?"+
				" WHERE id = ?",
			row.LikeDelta, row.ViewDelta, row.OrderDelta, row.OrderQuantityDelta,
			row.LikeDelta, row.ViewDelta, row.OrderDelta, row.OrderQuantityDelta,
			row.LikeDelta, row.ViewDelta, row.OrderDelta, row.OrderQuantityDelta,
			at, at, row.ID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteDailyBefore removes daily ledger rows older than the cutoff date.
func (r *Repository) DeleteDailyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("metric_date < ?", DateOnly(cutoff)).
		Delete(&models.ProductMetricsDaily{})
	return res.RowsAffected, res.Error
}

// GetProductMetrics returns the running counters for one product.
func (r *Repository) GetProductMetrics(ctx context.Context, productID uuid.UUID) (*models.ProductMetrics, error) {
	if productID == uuid.Nil {
		return nil, errors.New("product id is required")
	}
	var row models.ProductMetrics
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
