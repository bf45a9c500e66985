package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductMetrics holds the running interaction counters per product.
// Rows are only ever mutated through additive upserts, so concurrent
// batches commute.
type ProductMetrics struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_metrics_product_id_key"`
	LikeCount          int64     `gorm:"column:like_count;not null;default:0"`
	ViewCount          int64     `gorm:"column:view_count;not null;default:0"`
	OrderCount         int64     `gorm:"column:order_count;not null;default:0"`
	TotalOrderQuantity int64     `gorm:"column:total_order_quantity;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductMetrics) TableName() string {
	return "product_metrics"
}
