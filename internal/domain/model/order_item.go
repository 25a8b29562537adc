package model

import "time"

// 注文時点の商品情報のスナップショット。作成後は更新しない。
type OrderItem struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64     `gorm:"not null;index" json:"order_id"`
	ProductID            int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot  string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	ProductImageSnapshot string    `gorm:"type:varchar(512)" json:"product_image_snapshot"`
	UnitPriceSnapshot    int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity             int64     `gorm:"not null" json:"quantity"`
	Subtotal             int64     `gorm:"not null" json:"subtotal"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
}
