package repository

import (
	"context"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 行ロック付き（SELECT ... FOR UPDATE）。Tx内で使う。
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// 作成。order_code / idempotency_key の衝突は ErrDuplicate
	Create(ctx context.Context, order model.Order) (int64, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)

	// 現在ステータスが from のときだけ to に更新する。falseなら別の遷移に負けた。
	UpdateStatusIfCurrent(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus, at time.Time) (bool, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
