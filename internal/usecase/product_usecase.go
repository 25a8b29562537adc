package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

type ProductUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	clock    Clock
	logger   *slog.Logger
}

// DI
func NewProductUsecase(tx repo.TransactionManager, products repo.ProductRepository, clock Clock, logger *slog.Logger) *ProductUsecase {
	return &ProductUsecase{tx: tx, products: products, clock: clock, logger: logger}
}

// 販売中の商品だけ見せる
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, errValidation("invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, u.internal(ctx, "find product failed", err)
	}
	if !p.IsActive() {
		return model.Product{}, errNotFound()
	}
	return p, nil
}

type AdminSetStockInput struct {
	Stock  int64
	Reason string
}

// 在庫を現在値で上書きし、調整履歴と監査ログを同じTxで残す
func (u *ProductUsecase) AdminSetStock(ctx context.Context, adminUserID int64, productID int64, in AdminSetStockInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized()
	}
	if productID <= 0 {
		return model.Product{}, errValidation("invalid product id")
	}
	if in.Stock < 0 {
		return model.Product{}, errValidation("stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || len(reason) > 255 {
		return model.Product{}, errValidation("reason required")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return u.internal(ctx, "find product failed", err)
		}

		if err := r.Inventory().SetStock(ctx, productID, in.Stock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return u.internal(ctx, "set stock failed", err)
		}

		now := u.clock.Now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Before:      p.Stock,
			Delta:       in.Stock - p.Stock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return u.internal(ctx, "create adjustment failed", err)
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, in.Stock),
			CreatedAt:    now,
		}); err != nil {
			return u.internal(ctx, "write audit log failed", err)
		}

		p.Stock = in.Stock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

func (u *ProductUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}
