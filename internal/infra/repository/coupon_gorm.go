package repository

import (
	"context"
	"strings"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&c).Error
	if isNotFound(err) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// 上限チェックと加算を1本のUPDATEで行う
func (r *CouponGormRepository) IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Coupon{}, repo.ErrDuplicate
		}
		return model.Coupon{}, err
	}
	return c, nil
}
