package model

import "time"

// 在庫の手動調整履歴（管理者）
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	Before      int64     `gorm:"not null" json:"before"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
