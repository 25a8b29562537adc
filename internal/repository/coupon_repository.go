package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

type CouponRepository interface {
	// codeで1件（大文字小文字は区別しない）
	FindByCode(ctx context.Context, code string) (model.Coupon, error)

	// usage_limit に達していなければ used_count を +1。
	// 1本の条件付きUPDATE。falseなら上限到達。
	IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error)

	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
}
