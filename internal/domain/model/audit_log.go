package model

import "time"

type AuditAction string

const (
	//在庫を更新した操作。
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
