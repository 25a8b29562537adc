package repository

import (
	"context"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderEventGormRepository struct {
	db *gorm.DB
}

func NewOrderEventGormRepository(db *gorm.DB) *OrderEventGormRepository {
	return &OrderEventGormRepository{db: db}
}

func (r *OrderEventGormRepository) Create(ctx context.Context, ev model.OrderEvent) error {
	return r.db.WithContext(ctx).Create(&ev).Error
}

// 未送信を古い順に。relayが複数いても同じ行を取り合わないようSKIP LOCKED。
func (r *OrderEventGormRepository) FetchPending(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var evs []model.OrderEvent
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("sent_at IS NULL").
		Order("id asc").
		Limit(limit).
		Find(&evs).Error; err != nil {
		return nil, err
	}
	return evs, nil
}

func (r *OrderEventGormRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.OrderEvent{}).
		Where("id = ?", id).
		Update("sent_at", sentAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
