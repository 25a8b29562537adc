package repository

import (
	"context"
	"errors"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート明細（追加順）
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 注文確定後にカートを空にする
func (r *CartGormRepository) ClearByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

// 同一商品は数量加算。ユニーク制約(user_id, product_id)に対するON CONFLICT。
func (r *CartGormRepository) Upsert(ctx context.Context, userID int64, productID int64, addQty int64, note string) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}

	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  addQty,
		Note:      note,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"note":       gorm.Expr("EXCLUDED.note"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(&item).Error
	if err != nil {
		return model.CartItem{}, err
	}

	//ON CONFLICT側では数量が返らないので読み直す
	var saved model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&saved).Error; err != nil {
		return model.CartItem{}, err
	}
	return saved, nil
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を取得
func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		First(&item).Error

	if isNotFound(err) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}
