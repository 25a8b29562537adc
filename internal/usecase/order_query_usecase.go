package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

// 注文の参照。詳細はredisを先に見る。
type OrderQueryUsecase struct {
	tx        repo.TransactionManager
	auditLogs repo.AuditLogRepository
	cache     OrderCache
	logger    *slog.Logger
}

func NewOrderQueryUsecase(tx repo.TransactionManager, auditLogs repo.AuditLogRepository, cache OrderCache, logger *slog.Logger) *OrderQueryUsecase {
	return &OrderQueryUsecase{tx: tx, auditLogs: auditLogs, cache: cache, logger: logger}
}

type OrderListOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type AdminListOrdersInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

func (u *OrderQueryUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (model.OrderDetail, error) {
	if userID <= 0 {
		return model.OrderDetail{}, errUnauthorized()
	}
	if orderID <= 0 {
		return model.OrderDetail{}, errValidation("invalid id")
	}

	d, err := u.getDetail(ctx, orderID)
	if err != nil {
		return model.OrderDetail{}, err
	}
	//他人の注文は「存在しない扱い」にする
	if d.Order.UserID != userID {
		return model.OrderDetail{}, errOrderNotFound()
	}
	return d, nil
}

func (u *OrderQueryUsecase) AdminGetOrder(ctx context.Context, orderID int64) (model.OrderDetail, error) {
	if orderID <= 0 {
		return model.OrderDetail{}, errValidation("invalid id")
	}
	return u.getDetail(ctx, orderID)
}

func (u *OrderQueryUsecase) getDetail(ctx context.Context, orderID int64) (model.OrderDetail, error) {
	if d, err := u.cache.Get(ctx, orderID); err == nil {
		return d, nil
	}

	var out model.OrderDetail
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		if err != nil {
			return u.internal(ctx, "load order failed", err)
		}
		out, err = loadOrderDetail(ctx, r, o)
		if err != nil {
			return u.internal(ctx, "load order detail failed", err)
		}
		return nil
	})
	if err != nil {
		return model.OrderDetail{}, err
	}

	if err := u.cache.Set(ctx, out); err != nil {
		u.logger.WarnContext(ctx, "order cache set failed", slog.Int64("order_id", orderID), slog.Any("error", err))
	}
	return out, nil
}

func (u *OrderQueryUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized()
	}
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return OrderListOutput{}, err
	}

	var out OrderListOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return u.internal(ctx, "list orders failed", err)
		}
		out = OrderListOutput{Items: orders, Total: total, Page: page, Limit: limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderQueryUsecase) AdminListOrders(ctx context.Context, in AdminListOrdersInput) (OrderListOutput, error) {
	page, limit, err := normalizePage(in.Page, in.Limit)
	if err != nil {
		return OrderListOutput{}, err
	}
	if in.Status != "" {
		if _, ok := model.ParseOrderStatus(in.Status); !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidStatus, "invalid status")
		}
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return OrderListOutput{}, errValidation("from must be before to")
	}

	var out OrderListOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:   page,
			Limit:  limit,
			Status: in.Status,
			UserID: in.UserID,
			From:   in.From,
			To:     in.To,
		})
		if err != nil {
			return u.internal(ctx, "list admin orders failed", err)
		}
		out = OrderListOutput{Items: orders, Total: total, Page: page, Limit: limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 管理者による注文ステータス変更の履歴
func (u *OrderQueryUsecase) AdminAuditTrail(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return nil, errValidation("invalid id")
	}
	rt := model.AuditResourceOrder
	logs, err := u.auditLogs.List(ctx, repo.AuditLogFilter{
		ResourceType: &rt,
		ResourceID:   &orderID,
		Limit:        200,
	})
	if err != nil {
		return nil, u.internal(ctx, "list audit logs failed", err)
	}
	return logs, nil
}

func (u *OrderQueryUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}

// 0は既定値（1ページ目/20件）
func normalizePage(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if page < 1 {
		return 0, 0, errValidation("invalid page")
	}
	if limit < 1 || limit > 100 {
		return 0, 0, errValidation("invalid limit")
	}
	return page, limit, nil
}
