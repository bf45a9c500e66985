package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a placed order; its items fan out into per-product metrics.
type Order struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	TotalCents int64       `gorm:"column:total_cents;not null;default:0"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a single product line within an order.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:order_items_product_id_idx"`
	Quantity   int64     `gorm:"column:quantity;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
