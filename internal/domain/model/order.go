package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// 通常フロー（この順でしか進まない）
var orderFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipping,
	OrderStatusDelivered,
}

// 誰が遷移させるか
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "customer"
	ActorRoleAdmin    ActorRole = "admin"
)

type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderCode      string      `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_code"`
	UserID         int64       `gorm:"not null;index" json:"user_id"`
	AddressID      int64       `gorm:"not null" json:"address_id"`
	TotalAmount    int64       `gorm:"not null" json:"total_amount"`
	ShippingFee    int64       `gorm:"not null" json:"shipping_fee"`
	DiscountAmount int64       `gorm:"not null" json:"discount_amount"`
	FinalAmount    int64       `gorm:"not null" json:"final_amount"`
	CouponID       *int64      `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode     *string     `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	PaymentMethod  string      `gorm:"type:varchar(50);not null" json:"payment_method"`
	ShippingMethod string      `gorm:"type:varchar(50);not null" json:"shipping_method"`
	Note           string      `gorm:"type:text" json:"note"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IdempotencyKey *string     `gorm:"type:varchar(255)" json:"-"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}

// final = total + shipping - discount が成り立つか
func (o Order) Reconciles() bool {
	return o.FinalAmount == o.TotalAmount+o.ShippingFee-o.DiscountAmount
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipping,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

// 終端（ここからは動かせない）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// 発送前か（キャンセル時に在庫を戻す対象）
func (s OrderStatus) BeforeDispatch() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusProcessing
}

func (s OrderStatus) flowRank() int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransition は状態遷移グラフの判定。
// customer は pending/confirmed からのキャンセルのみ。
// admin は前進（飛ばしも可）と cancelled / refunded への分岐。
func CanTransition(from, to OrderStatus, role ActorRole) bool {
	if from == to || from.IsTerminal() {
		return false
	}
	if _, ok := ParseOrderStatus(string(to)); !ok {
		return false
	}

	switch role {
	case ActorRoleCustomer:
		return to == OrderStatusCancelled &&
			(from == OrderStatusPending || from == OrderStatusConfirmed)

	case ActorRoleAdmin:
		// キャンセル・返金は終端以外のどこからでも
		if to == OrderStatusCancelled || to == OrderStatusRefunded {
			return true
		}
		fr, tr := from.flowRank(), to.flowRank()
		return fr >= 0 && tr > fr
	}
	return false
}

// タイムラインのステータス列がグラフ上の正しい経路か
func ValidStatusPath(path []OrderStatus) bool {
	if len(path) == 0 || path[0] != OrderStatusPending {
		return false
	}
	for i := 1; i < len(path); i++ {
		if !CanTransition(path[i-1], path[i], ActorRoleAdmin) {
			return false
		}
	}
	return true
}

// タイムライン表示用ラベル
func StatusLabel(s OrderStatus) string {
	switch s {
	case OrderStatusPending:
		return "Order placed"
	case OrderStatusConfirmed:
		return "Order confirmed"
	case OrderStatusProcessing:
		return "Preparing your order"
	case OrderStatusShipping:
		return "Out for delivery"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Order cancelled"
	case OrderStatusRefunded:
		return "Refunded"
	}
	return string(s)
}
