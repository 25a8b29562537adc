package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	ClearByUserID(ctx context.Context, userID int64) error

	// 同一商品はプラス
	Upsert(ctx context.Context, userID int64, productID int64, addQty int64, note string) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
}
