package repository

import (
	"context"

	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	timeline    repo.OrderTimelineRepository
	orderEvents repo.OrderEventRepository
	carts       repo.CartRepository
	inventory   repo.InventoryRepository
	products    repo.ProductRepository
	coupons     repo.CouponRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *txReposGorm) Timeline() repo.OrderTimelineRepository { return r.timeline }
func (r *txReposGorm) OrderEvents() repo.OrderEventRepository { return r.orderEvents }
func (r *txReposGorm) Carts() repo.CartRepository             { return r.carts }
func (r *txReposGorm) Inventory() repo.InventoryRepository    { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository       { return r.products }
func (r *txReposGorm) Coupons() repo.CouponRepository         { return r.coupons }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

func newTxRepos(tx *gorm.DB) *txReposGorm {
	return &txReposGorm{
		orders:      NewOrderGormRepository(tx),
		orderItems:  NewOrderItemGormRepository(tx),
		timeline:    NewOrderTimelineGormRepository(tx),
		orderEvents: NewOrderEventGormRepository(tx),
		carts:       NewCartGormRepository(tx),
		inventory:   NewInventoryGormRepository(tx),
		products:    NewProductGormRepository(tx),
		coupons:     NewCouponGormRepository(tx),
		auditLogs:   NewAuditLogGormRepository(tx),
	}
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(newTxRepos(tx))
	})
}
