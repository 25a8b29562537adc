package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

type Coupon struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description   string          `gorm:"type:text" json:"description"`
	DiscountType  DiscountType    `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinPurchase   int64           `gorm:"not null;default:0" json:"min_purchase"`
	MaxDiscount   *int64          `json:"max_discount,omitempty"`
	UsageLimit    *int64          `json:"usage_limit,omitempty"`
	UsedCount     int64           `gorm:"not null;default:0" json:"used_count"`
	ValidFrom     time.Time       `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time       `gorm:"not null" json:"valid_until"`
	Status        CouponStatus    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// クーポンを使えない理由（クライアントにそのまま返す）
type CouponRejectReason string

const (
	CouponNotFound     CouponRejectReason = "NOT_FOUND"
	CouponInactive     CouponRejectReason = "INACTIVE"
	CouponNotYetValid  CouponRejectReason = "NOT_YET_VALID"
	CouponExpired      CouponRejectReason = "EXPIRED"
	CouponExhausted    CouponRejectReason = "EXHAUSTED"
	CouponBelowMinimum CouponRejectReason = "BELOW_MINIMUM"
)

type CouponRejectedError struct {
	Reason CouponRejectReason
}

func (e *CouponRejectedError) Error() string {
	return "coupon rejected: " + string(e.Reason)
}

func (e *CouponRejectedError) Message() string {
	switch e.Reason {
	case CouponNotFound:
		return "coupon not found"
	case CouponInactive:
		return "coupon is not active"
	case CouponNotYetValid:
		return "coupon is not valid yet"
	case CouponExpired:
		return "coupon has expired"
	case CouponExhausted:
		return "coupon usage limit reached"
	case CouponBelowMinimum:
		return "order amount is below the coupon minimum"
	}
	return "coupon rejected"
}

type CouponDecision struct {
	CouponID       int64        `json:"coupon_id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	OrderAmount    int64        `json:"order_amount"`
	DiscountAmount int64        `json:"discount_amount"`
	PayableAmount  int64        `json:"payable_amount"`
}

// Evaluate は存在確認の後のルール（status → 期間 → 使用回数 → 最低金額）を順に見る。
// 台帳は読むだけで、used_count は変えない。
func (c Coupon) Evaluate(now time.Time, orderAmount int64) (CouponDecision, error) {
	if c.Status != CouponStatusActive {
		return CouponDecision{}, &CouponRejectedError{Reason: CouponInactive}
	}
	if now.Before(c.ValidFrom) {
		return CouponDecision{}, &CouponRejectedError{Reason: CouponNotYetValid}
	}
	if now.After(c.ValidUntil) {
		return CouponDecision{}, &CouponRejectedError{Reason: CouponExpired}
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return CouponDecision{}, &CouponRejectedError{Reason: CouponExhausted}
	}
	if orderAmount < c.MinPurchase {
		return CouponDecision{}, &CouponRejectedError{Reason: CouponBelowMinimum}
	}

	discount := c.DiscountFor(orderAmount)
	return CouponDecision{
		CouponID:       c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		OrderAmount:    orderAmount,
		DiscountAmount: discount,
		PayableAmount:  orderAmount - discount,
	}, nil
}

// 割引額。percentage は端数切り捨て、どの場合も注文金額を超えない。
func (c Coupon) DiscountFor(orderAmount int64) int64 {
	var discount int64

	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = decimal.NewFromInt(orderAmount).
			Mul(c.DiscountValue).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.DiscountValue.Floor().IntPart()
	}

	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
