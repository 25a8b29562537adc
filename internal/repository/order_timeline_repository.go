package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

// 追記のみ。更新・削除は持たない。
type OrderTimelineRepository interface {
	Append(ctx context.Context, entry model.OrderTimelineEntry) (model.OrderTimelineEntry, error)

	// created_at, id の昇順
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderTimelineEntry, error)

	LatestByOrderID(ctx context.Context, orderID int64) (model.OrderTimelineEntry, error)
}
