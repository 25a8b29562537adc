package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"github.com/google/uuid"
)

// 注文詳細のキャッシュ（redis実装はinfra/cache）
// Setは既に入っている詳細より古いものでは上書きしない。
type OrderCache interface {
	Get(ctx context.Context, orderID int64) (model.OrderDetail, error)
	Set(ctx context.Context, d model.OrderDetail) error
	Delete(ctx context.Context, orderID int64) error
}

var errCacheDisabled = errors.New("order cache disabled")

// REDIS_ADDR未設定のとき
type NoopOrderCache struct{}

func (NoopOrderCache) Get(context.Context, int64) (model.OrderDetail, error) {
	return model.OrderDetail{}, errCacheDisabled
}
func (NoopOrderCache) Set(context.Context, model.OrderDetail) error { return nil }
func (NoopOrderCache) Delete(context.Context, int64) error          { return nil }

// 明細はスナップショットのまま返す（商品マスタは見ない）
func loadOrderDetail(ctx context.Context, r repo.TxRepos, o model.Order) (model.OrderDetail, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.OrderDetail{}, err
	}
	timeline, err := r.Timeline().ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.OrderDetail{}, err
	}
	return model.OrderDetail{Order: o, Items: items, Timeline: timeline}, nil
}

type orderEventPayload struct {
	OrderID     int64             `json:"order_id"`
	OrderCode   string            `json:"order_code"`
	UserID      int64             `json:"user_id"`
	Status      model.OrderStatus `json:"status"`
	FromStatus  model.OrderStatus `json:"from_status,omitempty"`
	FinalAmount int64             `json:"final_amount"`
	ActorRole   model.ActorRole   `json:"actor_role,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

func newOrderEvent(eventType string, p orderEventPayload) (model.OrderEvent, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return model.OrderEvent{}, err
	}
	return model.OrderEvent{
		EventID:   uuid.NewString(),
		OrderID:   p.OrderID,
		OrderCode: p.OrderCode,
		EventType: eventType,
		Payload:   string(body),
		CreatedAt: p.OccurredAt,
	}, nil
}
