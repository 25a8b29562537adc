package model

// 注文の復元結果（注文 + 凍結された明細 + 時系列のタイムライン）
type OrderDetail struct {
	Order    Order                `json:"order"`
	Items    []OrderItem          `json:"items"`
	Timeline []OrderTimelineEntry `json:"timeline"`
}

// 最新タイムラインのステータスと注文のステータスが一致するか
func (d OrderDetail) Consistent() bool {
	if len(d.Timeline) == 0 {
		return false
	}
	return d.Timeline[len(d.Timeline)-1].Status == d.Order.Status
}
