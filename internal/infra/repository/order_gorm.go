package repository

import (
	"context"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", orderID))
}

// 遷移の直列化用。Tx外で呼ぶとロックはすぐ外れる。
func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID))
}

func (r *OrderGormRepository) first(q *gorm.DB) (model.Order, error) {
	var o model.Order
	err := q.First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, repo.ErrDuplicate
		}
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// status = from の行だけ更新する（compare-and-set）
func (r *OrderGormRepository) UpdateStatusIfCurrent(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}
