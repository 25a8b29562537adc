package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueryFixture(cache OrderCache) (*statusFixture, *OrderQueryUsecase) {
	f := newStatusFixture(cache)
	q := NewOrderQueryUsecase(f.store, memAudits{f.store}, cache, discardLogger())
	return f, q
}

func TestGetMyOrder_ReconstructsDetail(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	o, _ := f.placeOrder(t, 7)
	_, err := f.status.CancelMyOrder(context.Background(), 7, o.ID, "changed my mind")
	require.NoError(t, err)

	d, err := q.GetMyOrder(context.Background(), 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, d.Order.ID)
	assert.Equal(t, model.OrderStatusCancelled, d.Order.Status)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Amoxicillin", d.Items[0].ProductNameSnapshot)
	require.Len(t, d.Timeline, 2)
	assert.Equal(t, model.OrderStatusPending, d.Timeline[0].Status)
	assert.Equal(t, "changed my mind", d.Timeline[1].Description)
	assert.True(t, d.Consistent())
}

// 商品の価格が変わっても明細はスナップショットのまま
func TestGetMyOrder_ItemsAreSnapshots(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	o, p := f.placeOrder(t, 7)

	p.Price = 999999
	p.Name = "Amoxicillin (new packaging)"
	f.store.addProduct(p)

	d, err := q.GetMyOrder(context.Background(), 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), d.Items[0].UnitPriceSnapshot)
	assert.Equal(t, "Amoxicillin", d.Items[0].ProductNameSnapshot)
}

func TestGetMyOrder_ForeignOrMissing(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	o, _ := f.placeOrder(t, 7)

	_, err := q.GetMyOrder(context.Background(), 8, o.ID)
	assert.Equal(t, CodeOrderNotFound, httpCode(err))

	_, err = q.GetMyOrder(context.Background(), 7, 123456)
	assert.Equal(t, CodeOrderNotFound, httpCode(err))

	_, err = q.GetMyOrder(context.Background(), 7, 0)
	assert.Equal(t, CodeValidation, httpCode(err))

	//管理者は誰の注文でも見られる
	d, err := q.AdminGetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.Order.UserID)
}

func TestGetDetail_ReadThroughCache(t *testing.T) {
	cache := &OrderCacheMock{}
	f, q := newQueryFixture(cache)
	o, _ := f.placeOrder(t, 7)

	cache.On("Get", mock.Anything, o.ID).Return(model.OrderDetail{}, errCacheDisabled).Once()
	cache.On("Set", mock.Anything, mock.MatchedBy(func(d model.OrderDetail) bool {
		return d.Order.ID == o.ID && len(d.Timeline) == 1
	})).Return(nil).Once()

	_, err := q.GetMyOrder(context.Background(), 7, o.ID)
	require.NoError(t, err)
	cache.AssertExpectations(t)

	//2回目はキャッシュから（DBを読まない）
	cached := model.OrderDetail{Order: model.Order{ID: o.ID, UserID: 7, Status: model.OrderStatusPending}}
	cache.On("Get", mock.Anything, o.ID).Return(cached, nil).Once()
	before := f.store.txCount

	d, err := q.GetMyOrder(context.Background(), 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, d)
	assert.Equal(t, before, f.store.txCount)
}

func TestGetDetail_CacheSetFailureIsNotFatal(t *testing.T) {
	cache := &OrderCacheMock{}
	f, q := newQueryFixture(cache)
	o, _ := f.placeOrder(t, 7)

	cache.On("Get", mock.Anything, o.ID).Return(model.OrderDetail{}, errCacheDisabled)
	cache.On("Set", mock.Anything, mock.Anything).Return(assert.AnError)

	d, err := q.AdminGetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, d.Order.ID)
}

func TestListMyOrders_Paginates(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	for i := 0; i < 3; i++ {
		f.placeOrder(t, 7)
	}
	f.placeOrder(t, 8)

	out, err := q.ListMyOrders(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 2, out.Limit)

	out, err = q.ListMyOrders(context.Background(), 7, 2, 2)
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)

	//既定値
	out, err = q.ListMyOrders(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)

	_, err = q.ListMyOrders(context.Background(), 7, 1, 101)
	assert.Equal(t, CodeValidation, httpCode(err))
	_, err = q.ListMyOrders(context.Background(), 7, -1, 10)
	assert.Equal(t, CodeValidation, httpCode(err))
}

func TestAdminListOrders_Filters(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	o1, _ := f.placeOrder(t, 7)
	f.placeOrder(t, 8)
	_, err := f.status.Transition(context.Background(), o1.ID, TransitionInput{Status: "confirmed"}, adminActor)
	require.NoError(t, err)

	out, err := q.AdminListOrders(context.Background(), AdminListOrdersInput{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, o1.ID, out.Items[0].ID)

	uid := int64(8)
	out, err = q.AdminListOrders(context.Background(), AdminListOrdersInput{UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	_, err = q.AdminListOrders(context.Background(), AdminListOrdersInput{Status: "bogus"})
	assert.Equal(t, CodeInvalidStatus, httpCode(err))

	from := checkoutNow
	to := checkoutNow.Add(-time.Hour)
	_, err = q.AdminListOrders(context.Background(), AdminListOrdersInput{From: &from, To: &to})
	assert.Equal(t, CodeValidation, httpCode(err))
}

func TestAdminAuditTrail(t *testing.T) {
	f, q := newQueryFixture(NoopOrderCache{})
	o, _ := f.placeOrder(t, 7)
	other, _ := f.placeOrder(t, 8)

	for _, st := range []string{"confirmed", "processing"} {
		_, err := f.status.Transition(context.Background(), o.ID, TransitionInput{Status: st}, adminActor)
		require.NoError(t, err)
	}
	_, err := f.status.Transition(context.Background(), other.ID, TransitionInput{Status: "confirmed"}, adminActor)
	require.NoError(t, err)

	logs, err := q.AdminAuditTrail(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	//新しい順
	assert.Equal(t, `{"status":"confirmed"}`, logs[0].BeforeJSON)
	assert.Equal(t, `{"status":"processing"}`, logs[0].AfterJSON)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.Equal(t, adminActor.UserID, logs[0].ActorUserID)
}
