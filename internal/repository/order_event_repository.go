package repository

import (
	"context"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

// 注文イベントのoutbox
type OrderEventRepository interface {
	Create(ctx context.Context, ev model.OrderEvent) error
	FetchPending(ctx context.Context, limit int) ([]model.OrderEvent, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
}
