package repository

import (
	"context"
	"errors"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反（order_code / idempotency_key の衝突）
var ErrDuplicate = errors.New("duplicate")

// 他の行から参照されていて消せない
var ErrInUse = errors.New("in use")

// 商品の読み取り。カタログ検索は別サブシステム。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
