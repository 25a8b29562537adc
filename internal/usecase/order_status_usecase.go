package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// 遷移を行う人
type Actor struct {
	UserID int64
	Role   model.ActorRole
}

type TransitionInput struct {
	Status string
	Note   string
}

// OrderStatusUsecase は注文ステータスの状態機械。
// ステータス更新とタイムライン追記は同じTxで行う。
type OrderStatusUsecase struct {
	tx      repo.TransactionManager
	cache   OrderCache
	clock   Clock
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewOrderStatusUsecase(
	tx repo.TransactionManager,
	cache OrderCache,
	clock Clock,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *OrderStatusUsecase {
	return &OrderStatusUsecase{tx: tx, cache: cache, clock: clock, metrics: metrics, logger: logger}
}

// 顧客のキャンセル
func (u *OrderStatusUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64, reason string) (model.OrderDetail, error) {
	note := strings.TrimSpace(reason)
	if note == "" {
		note = "Cancelled by customer"
	}
	return u.Transition(ctx, orderID, TransitionInput{
		Status: string(model.OrderStatusCancelled),
		Note:   note,
	}, Actor{UserID: userID, Role: model.ActorRoleCustomer})
}

func (u *OrderStatusUsecase) Transition(ctx context.Context, orderID int64, in TransitionInput, actor Actor) (model.OrderDetail, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "usecase.TransitionOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target_status", in.Status),
		attribute.String("actor.role", string(actor.Role)),
	)

	if actor.UserID <= 0 {
		return model.OrderDetail{}, errUnauthorized()
	}
	if actor.Role != model.ActorRoleCustomer && actor.Role != model.ActorRoleAdmin {
		return model.OrderDetail{}, errUnauthorized()
	}
	if orderID <= 0 {
		return model.OrderDetail{}, errValidation("invalid id")
	}
	to, ok := model.ParseOrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !ok {
		return model.OrderDetail{}, NewHTTPError(http.StatusBadRequest, CodeInvalidStatus, "invalid status")
	}
	if len(in.Note) > 1000 {
		return model.OrderDetail{}, errValidation("note too long")
	}

	var (
		out  model.OrderDetail
		from model.OrderStatus
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックで同じ注文への遷移を直列化
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errOrderNotFound()
		}
		if err != nil {
			return u.internal(ctx, "load order failed", err)
		}
		//他人の注文は存在しない扱い
		if actor.Role == model.ActorRoleCustomer && o.UserID != actor.UserID {
			return errOrderNotFound()
		}

		from = o.Status
		if !model.CanTransition(from, to, actor.Role) {
			return errBusiness(CodeInvalidTransition,
				fmt.Sprintf("cannot change order from %s to %s", from, to))
		}

		last, err := r.Timeline().LatestByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return u.internal(ctx, "load latest timeline failed", err)
		}
		at := nextTimelineTime(u.clock.Now(), last.CreatedAt)

		updated, err := r.Orders().UpdateStatusIfCurrent(ctx, orderID, from, to, at)
		if err != nil {
			return u.internal(ctx, "update order status failed", err)
		}
		if !updated {
			return errConflict(CodeConflict, "order was modified concurrently, please retry")
		}

		if returnsStock(from, to) {
			if err := restock(ctx, r, orderID); err != nil {
				return u.internal(ctx, "restock failed", err)
			}
		}

		description := strings.TrimSpace(in.Note)
		if description == "" {
			description = fmt.Sprintf("Status changed from %s to %s", from, to)
		}
		if _, err := r.Timeline().Append(ctx, model.OrderTimelineEntry{
			OrderID:     orderID,
			Status:      to,
			Label:       model.StatusLabel(to),
			Description: description,
			CreatedAt:   at,
		}); err != nil {
			return u.internal(ctx, "append timeline failed", err)
		}

		if actor.Role == model.ActorRoleAdmin {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   fmt.Sprintf(`{"status":%q}`, from),
				AfterJSON:    fmt.Sprintf(`{"status":%q}`, to),
				CreatedAt:    at,
			}); err != nil {
				return u.internal(ctx, "write audit log failed", err)
			}
		}

		ev, err := newOrderEvent(model.OrderEventStatusChanged, orderEventPayload{
			OrderID:     orderID,
			OrderCode:   o.OrderCode,
			UserID:      o.UserID,
			Status:      to,
			FromStatus:  from,
			FinalAmount: o.FinalAmount,
			ActorRole:   actor.Role,
			OccurredAt:  at,
		})
		if err != nil {
			return u.internal(ctx, "build order event failed", err)
		}
		if err := r.OrderEvents().Create(ctx, ev); err != nil {
			return u.internal(ctx, "write order event failed", err)
		}

		o.Status = to
		o.UpdatedAt = at
		out, err = loadOrderDetail(ctx, r, o)
		if err != nil {
			return u.internal(ctx, "load order detail failed", err)
		}
		return nil
	})

	if err != nil {
		result := CodeInternal
		if he, ok := AsHTTPError(err); ok {
			result = he.Code
		}
		span.SetStatus(codes.Error, result)
		u.metrics.ObserveTransition(string(from), string(to), result)
		return model.OrderDetail{}, err
	}

	//commit後に新しい詳細で上書きする。消すだけだと読み込み中の古い詳細が書き戻される
	if err := u.cache.Set(ctx, out); err != nil {
		u.logger.WarnContext(ctx, "order cache refresh failed", slog.Int64("order_id", orderID), slog.Any("error", err))
		if err := u.cache.Delete(ctx, orderID); err != nil {
			u.logger.WarnContext(ctx, "order cache invalidation failed", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}
	u.metrics.ObserveTransition(string(from), string(to), "ok")
	u.logger.InfoContext(ctx, "order status changed",
		slog.Int64("order_id", orderID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("actor_role", string(actor.Role)),
	)
	return out, nil
}

// タイムラインは作成時刻で厳密に増加させる
func nextTimelineTime(now, last time.Time) time.Time {
	if !last.IsZero() && !now.After(last) {
		return last.Add(time.Microsecond)
	}
	return now
}

// 発送前のキャンセル/返金だけ在庫を戻す
func returnsStock(from, to model.OrderStatus) bool {
	return (to == model.OrderStatusCancelled || to == model.OrderStatusRefunded) && from.BeforeDispatch()
}

func restock(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func errOrderNotFound() error {
	return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "order not found")
}

func (u *OrderStatusUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}
