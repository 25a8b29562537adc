package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ減らす。同時に売れた数を足す。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"sold_count": gorm.Expr("sold_count + ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"sold_count": gorm.Expr("GREATEST(sold_count - ?, 0)", qty),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}
