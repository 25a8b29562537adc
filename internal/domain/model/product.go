package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `gorm:"type:varchar(512)" json:"image_url"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int64          `gorm:"not null" json:"stock"`
	SoldCount   int64          `gorm:"not null;default:0" json:"sold_count"`
	Status      ProductStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
