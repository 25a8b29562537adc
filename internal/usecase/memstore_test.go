package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

// =====================
// テスト用のインメモリDB
// =====================

// memStore はTxごとに全体をスナップショットし、fnがerrorを返したら戻す。
// Txは1本ずつ直列に実行する（行ロックの代わり）。
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products    map[int64]model.Product
	carts       map[int64]model.CartItem
	coupons     map[int64]model.Coupon
	orders      map[int64]model.Order
	addresses   map[int64]model.Address
	items       []model.OrderItem
	timeline    []model.OrderTimelineEntry
	events      []model.OrderEvent
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment
	nextID      int64

	// "Orders.Create" などの名前で失敗を注入する
	failures map[string]error
	txCount  int
}

var errInjected = errors.New("injected failure")

func newMemStore() *memStore {
	return &memStore{
		products:  map[int64]model.Product{},
		carts:     map[int64]model.CartItem{},
		coupons:   map[int64]model.Coupon{},
		orders:    map[int64]model.Order{},
		addresses: map[int64]model.Address{},
		failures:  map[string]error{},
		nextID:    1000,
	}
}

type memSnapshot struct {
	products    map[int64]model.Product
	carts       map[int64]model.CartItem
	coupons     map[int64]model.Coupon
	orders      map[int64]model.Order
	addresses   map[int64]model.Address
	items       []model.OrderItem
	timeline    []model.OrderTimelineEntry
	events      []model.OrderEvent
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		products:    cloneMap(s.products),
		carts:       cloneMap(s.carts),
		coupons:     cloneMap(s.coupons),
		orders:      cloneMap(s.orders),
		addresses:   cloneMap(s.addresses),
		items:       cloneSlice(s.items),
		timeline:    cloneSlice(s.timeline),
		events:      cloneSlice(s.events),
		audits:      cloneSlice(s.audits),
		adjustments: cloneSlice(s.adjustments),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.carts = snap.carts
	s.coupons = snap.coupons
	s.orders = snap.orders
	s.addresses = snap.addresses
	s.items = snap.items
	s.timeline = snap.timeline
	s.events = snap.events
	s.audits = snap.audits
	s.adjustments = snap.adjustments
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(memTxRepos{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) failWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// mu保持中に呼ぶ
func (s *memStore) fail(op string) error {
	return s.failures[op]
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// ---- fixture helpers ----

func (s *memStore) addProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addCartItem(userID, productID, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.carts[id] = model.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: qty}
}

func (s *memStore) addCoupon(c model.Coupon) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.coupons[c.ID] = c
	return c
}

func (s *memStore) addAddress(userID int64) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := model.Address{
		ID:            s.id(),
		UserID:        userID,
		RecipientName: "Nguyen Van A",
		Phone:         "0900000000",
		Province:      "Da Nang",
		District:      "Hai Chau",
		Street:        "1 Bach Dang",
	}
	s.addresses[a.ID] = a
	return a
}

func (s *memStore) product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) coupon(id int64) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[id]
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) cartCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.carts {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) timelineOf(orderID int64) []model.OrderTimelineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OrderTimelineEntry
	for _, e := range s.timeline {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sortTimeline(out)
	return out
}

func (s *memStore) eventsOf(orderID int64) []model.OrderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OrderEvent
	for _, e := range s.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits)
}

// =====================
// TxRepos
// =====================

type memTxRepos struct{ s *memStore }

func (r memTxRepos) Orders() repo.OrderRepository           { return memOrders{r.s} }
func (r memTxRepos) OrderItems() repo.OrderItemRepository   { return memOrderItems{r.s} }
func (r memTxRepos) Timeline() repo.OrderTimelineRepository { return memTimeline{r.s} }
func (r memTxRepos) OrderEvents() repo.OrderEventRepository { return memEvents{r.s} }
func (r memTxRepos) Carts() repo.CartRepository             { return memCarts{r.s} }
func (r memTxRepos) Inventory() repo.InventoryRepository    { return memInventory{r.s} }
func (r memTxRepos) Products() repo.ProductRepository       { return memProducts{r.s} }
func (r memTxRepos) Coupons() repo.CouponRepository         { return memCoupons{r.s} }
func (r memTxRepos) AuditLogs() repo.AuditLogRepository     { return memAudits{r.s} }

// ---- orders ----

type memOrders struct{ s *memStore }

func (m memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Orders.FindByID"); err != nil {
		return model.Order{}, err
	}
	o, ok := m.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return m.FindByID(ctx, orderID)
}

func (m memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.Order
	for _, o := range m.s.orders {
		if o.UserID == userID {
			all = append(all, o)
		}
	}
	return paginateOrders(all, page, limit)
}

func (m memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Orders.Create"); err != nil {
		return 0, err
	}
	for _, o := range m.s.orders {
		if o.OrderCode == order.OrderCode {
			return 0, repo.ErrDuplicate
		}
		if order.IdempotencyKey != nil && o.IdempotencyKey != nil &&
			o.UserID == order.UserID && *o.IdempotencyKey == *order.IdempotencyKey {
			return 0, repo.ErrDuplicate
		}
	}
	order.ID = m.s.id()
	m.s.orders[order.ID] = order
	return order.ID, nil
}

func (m memOrders) ExistsByCode(ctx context.Context, code string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, o := range m.s.orders {
		if o.OrderCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m memOrders) UpdateStatusIfCurrent(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Orders.UpdateStatusIfCurrent"); err != nil {
		return false, err
	}
	o, ok := m.s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	m.s.orders[orderID] = o
	return true, nil
}

func (m memOrders) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, o := range m.s.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.Order
	for _, o := range m.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		all = append(all, o)
	}
	return paginateOrders(all, f.Page, f.Limit)
}

// 新しい順
func paginateOrders(all []model.Order, page, limit int) ([]model.Order, int64, error) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ---- order items ----

type memOrderItems struct{ s *memStore }

func (m memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("OrderItems.CreateBulk"); err != nil {
		return err
	}
	for _, it := range items {
		it.ID = m.s.id()
		it.OrderID = orderID
		m.s.items = append(m.s.items, it)
	}
	return nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.OrderItem
	for _, it := range m.s.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

// ---- timeline ----

type memTimeline struct{ s *memStore }

func sortTimeline(es []model.OrderTimelineEntry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].CreatedAt.Equal(es[j].CreatedAt) {
			return es[i].ID < es[j].ID
		}
		return es[i].CreatedAt.Before(es[j].CreatedAt)
	})
}

func (m memTimeline) Append(ctx context.Context, e model.OrderTimelineEntry) (model.OrderTimelineEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Timeline.Append"); err != nil {
		return model.OrderTimelineEntry{}, err
	}
	e.ID = m.s.id()
	m.s.timeline = append(m.s.timeline, e)
	return e, nil
}

func (m memTimeline) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderTimelineEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.OrderTimelineEntry
	for _, e := range m.s.timeline {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sortTimeline(out)
	return out, nil
}

func (m memTimeline) LatestByOrderID(ctx context.Context, orderID int64) (model.OrderTimelineEntry, error) {
	list, _ := m.ListByOrderID(ctx, orderID)
	if len(list) == 0 {
		return model.OrderTimelineEntry{}, repo.ErrNotFound
	}
	return list[len(list)-1], nil
}

// ---- outbox ----

type memEvents struct{ s *memStore }

func (m memEvents) Create(ctx context.Context, ev model.OrderEvent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("OrderEvents.Create"); err != nil {
		return err
	}
	ev.ID = m.s.id()
	m.s.events = append(m.s.events, ev)
	return nil
}

func (m memEvents) FetchPending(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.OrderEvent
	for _, ev := range m.s.events {
		if ev.SentAt == nil && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m memEvents) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.events {
		if m.s.events[i].ID == id {
			t := sentAt
			m.s.events[i].SentAt = &t
			return nil
		}
	}
	return repo.ErrNotFound
}

// ---- carts ----

type memCarts struct{ s *memStore }

func (m memCarts) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Carts.ListByUserID"); err != nil {
		return nil, err
	}
	var out []model.CartItem
	for _, c := range m.s.carts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCarts) ClearByUserID(ctx context.Context, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Carts.ClearByUserID"); err != nil {
		return err
	}
	for id, c := range m.s.carts {
		if c.UserID == userID {
			delete(m.s.carts, id)
		}
	}
	return nil
}

func (m memCarts) Upsert(ctx context.Context, userID, productID, addQty int64, note string) (model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, c := range m.s.carts {
		if c.UserID == userID && c.ProductID == productID {
			c.Quantity += addQty
			if note != "" {
				c.Note = note
			}
			m.s.carts[id] = c
			return c, nil
		}
	}
	c := model.CartItem{ID: m.s.id(), UserID: userID, ProductID: productID, Quantity: addQty, Note: note}
	m.s.carts[c.ID] = c
	return c, nil
}

func (m memCarts) UpdateQuantity(ctx context.Context, cartItemID, qty int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.carts[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Quantity = qty
	m.s.carts[cartItemID] = c
	return nil
}

func (m memCarts) DeleteByID(ctx context.Context, cartItemID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.carts[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(m.s.carts, cartItemID)
	return nil
}

func (m memCarts) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.carts[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return c, nil
}

// ---- inventory / products ----

type memInventory struct{ s *memStore }

func (m memInventory) SetStock(ctx context.Context, productID, newStock int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	m.s.products[productID] = p
	return nil
}

// 条件付きUPDATEと同じく、足りなければ何も変えずにfalse
func (m memInventory) DecreaseStockIfEnough(ctx context.Context, productID, qty int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Inventory.DecreaseStockIfEnough"); err != nil {
		return false, err
	}
	p, ok := m.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.SoldCount += qty
	m.s.products[productID] = p
	return true, nil
}

func (m memInventory) IncreaseStock(ctx context.Context, productID, qty int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	p.SoldCount -= qty
	if p.SoldCount < 0 {
		p.SoldCount = 0
	}
	m.s.products[productID] = p
	return nil
}

func (m memInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	adj.ID = m.s.id()
	m.s.adjustments = append(m.s.adjustments, adj)
	return nil
}

type memProducts struct{ s *memStore }

func (m memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memProducts) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p.ID = m.s.id()
	m.s.products[p.ID] = p
	return p, nil
}

// ---- coupons ----

type memCoupons struct{ s *memStore }

func (m memCoupons) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.coupons {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return model.Coupon{}, repo.ErrNotFound
}

func (m memCoupons) IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.coupons[couponID]
	if !ok {
		return false, nil
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false, nil
	}
	c.UsedCount++
	m.s.coupons[couponID] = c
	return true, nil
}

func (m memCoupons) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.coupons {
		if strings.EqualFold(existing.Code, c.Code) {
			return model.Coupon{}, repo.ErrDuplicate
		}
	}
	c.ID = m.s.id()
	m.s.coupons[c.ID] = c
	return c, nil
}

// ---- audit logs ----

type memAudits struct{ s *memStore }

func (m memAudits) Create(ctx context.Context, log model.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("AuditLogs.Create"); err != nil {
		return err
	}
	log.ID = m.s.id()
	m.s.audits = append(m.s.audits, log)
	return nil
}

func (m memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.AuditLog
	for _, l := range m.s.audits {
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ---- addresses ----

type memAddresses struct{ s *memStore }

func (m memAddresses) Create(ctx context.Context, a model.Address) (model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a.ID = m.s.id()
	m.s.addresses[a.ID] = a
	return a, nil
}

func (m memAddresses) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Address
	for _, a := range m.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memAddresses) FindByID(ctx context.Context, id int64) (model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (m memAddresses) Update(ctx context.Context, a model.Address) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.addresses[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	a.UserID = cur.UserID
	a.IsDefault = cur.IsDefault
	a.CreatedAt = cur.CreatedAt
	m.s.addresses[a.ID] = a
	return nil
}

func (m memAddresses) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.addresses[id]; !ok {
		return repo.ErrNotFound
	}
	for _, o := range m.s.orders {
		if o.AddressID == id {
			return repo.ErrInUse
		}
	}
	delete(m.s.addresses, id)
	return nil
}

func (m memAddresses) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.addresses[addressID]
	return ok && a.UserID == userID, nil
}

func (m memAddresses) SetDefault(ctx context.Context, userID, addressID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.addresses[addressID]; !ok {
		return repo.ErrNotFound
	}
	for id, a := range m.s.addresses {
		if a.UserID == userID {
			a.IsDefault = id == addressID
			m.s.addresses[id] = a
		}
	}
	return nil
}

// =====================
// clock / logger
// =====================

// 呼ばれるたびに進む時計（stepが0なら固定）
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFixedClock(t time.Time) *stepClock { return &stepClock{now: t} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func httpCode(err error) string {
	if he, ok := AsHTTPError(err); ok {
		return he.Code
	}
	return ""
}

func httpStatus(err error) int {
	if he, ok := AsHTTPError(err); ok {
		return he.Status
	}
	return 0
}
