package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
)

type OrderTimelineGormRepository struct {
	db *gorm.DB
}

func NewOrderTimelineGormRepository(db *gorm.DB) *OrderTimelineGormRepository {
	return &OrderTimelineGormRepository{db: db}
}

func (r *OrderTimelineGormRepository) Append(ctx context.Context, entry model.OrderTimelineEntry) (model.OrderTimelineEntry, error) {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return model.OrderTimelineEntry{}, err
	}
	return entry, nil
}

func (r *OrderTimelineGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderTimelineEntry, error) {
	var entries []model.OrderTimelineEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Order("id asc").
		Find(&entries).Error; err != nil {
		return []model.OrderTimelineEntry{}, err
	}
	return entries, nil
}

func (r *OrderTimelineGormRepository) LatestByOrderID(ctx context.Context, orderID int64) (model.OrderTimelineEntry, error) {
	var e model.OrderTimelineEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		Order("id desc").
		First(&e).Error
	if isNotFound(err) {
		return model.OrderTimelineEntry{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderTimelineEntry{}, err
	}
	return e, nil
}
