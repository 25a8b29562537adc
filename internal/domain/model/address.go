package model

import "time"

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//受取人
	RecipientName string `gorm:"type:varchar(255);not null" json:"recipient_name"`
	Phone         string `gorm:"type:varchar(30);not null" json:"phone"`

	//省/市
	Province string `gorm:"type:varchar(100);not null" json:"province"`
	District string `gorm:"type:varchar(100);not null" json:"district"`
	Ward     string `gorm:"type:varchar(100)" json:"ward"`

	//番地・通り
	Street string `gorm:"type:varchar(255);not null" json:"street"`

	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
