package model

// 送料ルール
type PricingPolicy struct {
	ShippingFee           int64
	FreeShippingThreshold int64
}

// 合計が閾値以上なら送料無料。閾値0以下は無効。
func (p PricingPolicy) ShippingFeeFor(totalAmount int64) int64 {
	if p.FreeShippingThreshold > 0 && totalAmount >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}
