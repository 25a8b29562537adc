package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
