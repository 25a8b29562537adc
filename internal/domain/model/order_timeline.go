package model

import "time"

// 注文ステータス履歴（追記のみ）
type OrderTimelineEntry struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64       `gorm:"not null;index" json:"order_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Label       string      `gorm:"type:varchar(100);not null" json:"label"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `gorm:"not null;index" json:"created_at"`
}

func (OrderTimelineEntry) TableName() string {
	return "order_timelines"
}
