package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductLike links a user to a liked product.
type ProductLike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:product_likes_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_likes_product_id_idx;uniqueIndex:product_likes_user_product_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductLike) TableName() string {
	return "product_likes"
}
