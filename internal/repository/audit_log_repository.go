package repository

import (
	"context"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

// 監査ログの絞り込み条件
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	Limit        int
	Offset       int
}

// 管理者操作の監査ログ。注文ステータス変更は遷移と同じTxで書く。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
