package repository

import "context"

// トランザクション内で使う約束。
// ここから取ったrepoは全部同じTxハンドルで動く。
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Timeline() OrderTimelineRepository
	OrderEvents() OrderEventRepository
	Carts() CartRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	Coupons() CouponRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したら全てrollback。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
