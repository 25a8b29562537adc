package model

import "time"

// カートの明細。ユーザー×商品で1行。
// 価格は持たない（注文確定時に商品から読み直す）。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:ux_cart_items_user_product" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	Note      string    `gorm:"type:varchar(255)" json:"note"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
