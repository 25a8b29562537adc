package model

import "time"

const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
)

// 注文イベントのoutbox。注文と同じTxで書き、relayがKafkaへ送る。
type OrderEvent struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string     `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	OrderID   int64      `gorm:"not null;index" json:"order_id"`
	OrderCode string     `gorm:"type:varchar(32);not null" json:"order_code"`
	EventType string     `gorm:"type:varchar(50);not null" json:"event_type"`
	Payload   string     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	SentAt    *time.Time `gorm:"index" json:"sent_at"`
}
