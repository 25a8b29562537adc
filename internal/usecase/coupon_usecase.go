package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

// CouponUsecase は注文前のクーポン確認（プレビュー）。
// 判定はcheckoutと同じevaluateCouponを通る。
type CouponUsecase struct {
	coupons repo.CouponRepository
	clock   Clock
	logger  *slog.Logger
}

func NewCouponUsecase(coupons repo.CouponRepository, clock Clock, logger *slog.Logger) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, clock: clock, logger: logger}
}

type ValidateCouponInput struct {
	Code        string
	OrderAmount int64
}

func (u *CouponUsecase) Validate(ctx context.Context, in ValidateCouponInput) (model.CouponDecision, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || len(code) > 50 {
		return model.CouponDecision{}, errValidation("invalid coupon code")
	}
	if in.OrderAmount < 0 {
		return model.CouponDecision{}, errValidation("order_amount must be >= 0")
	}

	_, decision, err := evaluateCoupon(ctx, u.logger, u.coupons, code, in.OrderAmount, u.clock.Now())
	if err != nil {
		return model.CouponDecision{}, err
	}
	return decision, nil
}

// evaluateCoupon は検索→ルール判定→割引計算。used_countは変えない。
func evaluateCoupon(
	ctx context.Context,
	logger *slog.Logger,
	coupons repo.CouponRepository,
	code string,
	orderAmount int64,
	now time.Time,
) (model.Coupon, model.CouponDecision, error) {
	c, err := coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, model.CouponDecision{}, couponRejected(model.CouponNotFound)
	}
	if err != nil {
		logger.ErrorContext(ctx, "find coupon failed", slog.String("code", code), slog.Any("error", err))
		return model.Coupon{}, model.CouponDecision{}, errInternal()
	}

	decision, err := c.Evaluate(now, orderAmount)
	if err != nil {
		var rej *model.CouponRejectedError
		if errors.As(err, &rej) {
			logger.DebugContext(ctx, "coupon rejected", slog.String("code", code), slog.String("reason", string(rej.Reason)))
			return model.Coupon{}, model.CouponDecision{}, couponRejected(rej.Reason)
		}
		return model.Coupon{}, model.CouponDecision{}, errInternal()
	}
	return c, decision, nil
}

// 理由コードはプレビューとcheckoutで同じ
func couponRejected(reason model.CouponRejectReason) error {
	rej := &model.CouponRejectedError{Reason: reason}
	return NewHTTPError(http.StatusUnprocessableEntity, string(reason), rej.Message())
}
