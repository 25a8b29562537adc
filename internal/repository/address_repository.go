package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

// 配送先住所の保存・取得
type AddressRepository interface {
	//作成後はIDなどが埋まったものを返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//デフォルト住所が先頭
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) error

	//注文から参照されている住所は消せない（FK）
	Delete(ctx context.Context, addressID int64) error

	//注文時の所有チェックに使う
	IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error)

	SetDefault(ctx context.Context, userID, addressID int64) error
}
