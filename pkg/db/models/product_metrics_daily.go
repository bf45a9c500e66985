package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductMetricsDaily accumulates per-day interaction deltas. The ranking
// promoter drains unprocessed rows into Redis and flips is_processed; the
// cleanup job deletes rows past retention.
type ProductMetricsDaily struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_metrics_daily_product_date_key"`
	MetricDate         time.Time  `gorm:"column:metric_date;type:date;not null;uniqueIndex:product_metrics_daily_product_date_key;index:product_metrics_daily_date_idx"`
	LikeDelta          int64      `gorm:"column:like_delta;not null;default:0"`
	ViewDelta          int64      `gorm:"column:view_delta;not null;default:0"`
	OrderDelta         int64      `gorm:"column:order_delta;not null;default:0"`
	OrderQuantityDelta int64      `gorm:"column:order_quantity_delta;not null;default:0"`
	IsProcessed        bool       `gorm:"column:is_processed;not null;default:false;index:product_metrics_daily_unprocessed_idx"`
	ProcessedAt        *time.Time `gorm:"column:processed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductMetricsDaily) TableName() string {
	return "product_metrics_daily"
}
