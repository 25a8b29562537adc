package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算し、sold_countを加算。
	// 1本の条件付きUPDATE。falseなら在庫不足。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）。sold_countも戻す。
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
