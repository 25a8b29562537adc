package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	PaymentCOD          = "cod"
	PaymentBankTransfer = "bank_transfer"
	PaymentCard         = "card"
	PaymentEWallet      = "e_wallet"

	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

// 同じ冪等キーの注文が同時に作られた（Txはrollback済み）
var errIdempotencyRace = errors.New("idempotency key raced")

type CheckoutInput struct {
	AddressID      int64
	PaymentMethod  string
	ShippingMethod string
	CouponCode     string
	Note           string
	IdempotencyKey string
}

type CheckoutOutput struct {
	model.OrderDetail
	// 同じ冪等キーの既存注文を返した
	Replayed bool `json:"-"`
}

// CheckoutUsecase はカートから注文を作る。
// 住所チェック以外はすべて1つのTxで行い、どこで失敗しても何も残さない。
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	pricing   model.PricingPolicy
	codes     *OrderCodeGenerator
	clock     Clock
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	pricing model.PricingPolicy,
	codes *OrderCodeGenerator,
	clock Clock,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		addresses: addresses,
		pricing:   pricing,
		codes:     codes,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "usecase.Checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	out, err := u.checkout(ctx, userID, in)
	if err != nil {
		result := CodeInternal
		if he, ok := AsHTTPError(err); ok {
			result = he.Code
		}
		span.SetStatus(codes.Error, result)
		u.metrics.ObserveCheckout(result)
		return CheckoutOutput{}, err
	}

	span.SetAttributes(
		attribute.String("order.code", out.Order.OrderCode),
		attribute.Bool("order.replayed", out.Replayed),
	)
	u.metrics.ObserveCheckout("ok")
	return out, nil
}

func (u *CheckoutUsecase) checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, errUnauthorized()
	}
	if in.AddressID <= 0 {
		return CheckoutOutput{}, errValidation("invalid address_id")
	}

	payment, err := normalizePaymentMethod(in.PaymentMethod)
	if err != nil {
		return CheckoutOutput{}, err
	}
	shipping, err := normalizeShippingMethod(in.ShippingMethod)
	if err != nil {
		return CheckoutOutput{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return CheckoutOutput{}, errValidation("invalid idempotency key")
	}
	couponCode := strings.TrimSpace(in.CouponCode)
	if len(couponCode) > 50 {
		return CheckoutOutput{}, errValidation("invalid coupon code")
	}

	//住所の所有チェック（存在しない住所も同じ扱い）
	owned, err := u.addresses.IsOwnedByUser(ctx, in.AddressID, userID)
	if err != nil {
		return CheckoutOutput{}, u.internal(ctx, "address ownership check failed", err)
	}
	if !owned {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, CodeAddressNotOwned, "address does not belong to user")
	}

	var out CheckoutOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return u.internal(ctx, "find by idempotency key failed", err)
			}
			if found {
				d, err := loadOrderDetail(ctx, r, existing)
				if err != nil {
					return u.internal(ctx, "load replayed order failed", err)
				}
				out = CheckoutOutput{OrderDetail: d, Replayed: true}
				return nil
			}
		}

		d, err := u.placeOrder(ctx, r, userID, in.AddressID, payment, shipping, couponCode, strings.TrimSpace(in.Note), key)
		if err != nil {
			return err
		}
		out = CheckoutOutput{OrderDetail: d}
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		return u.replay(ctx, userID, key)
	}
	if err != nil {
		return CheckoutOutput{}, err
	}

	if !out.Replayed {
		u.logger.InfoContext(ctx, "order placed",
			slog.Int64("order_id", out.Order.ID),
			slog.String("order_code", out.Order.OrderCode),
			slog.Int64("final_amount", out.Order.FinalAmount),
		)
	}
	return out, nil
}

func (u *CheckoutUsecase) placeOrder(
	ctx context.Context,
	r repo.TxRepos,
	userID, addressID int64,
	payment, shipping, couponCode, note, key string,
) (model.OrderDetail, error) {
	now := u.clock.Now()

	//カートのスナップショット
	cartItems, err := r.Carts().ListByUserID(ctx, userID)
	if err != nil {
		return model.OrderDetail{}, u.internal(ctx, "list cart failed", err)
	}
	if len(cartItems) == 0 {
		return model.OrderDetail{}, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
	}

	//商品は確定時点の値を読み直す（カートには価格を持たない）
	ids := make([]int64, 0, len(cartItems))
	for _, ci := range cartItems {
		ids = append(ids, ci.ProductID)
	}
	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return model.OrderDetail{}, u.internal(ctx, "load products failed", err)
	}

	lines := make([]model.OrderItem, 0, len(cartItems))
	var total int64
	for _, ci := range cartItems {
		p, ok := products[ci.ProductID]
		if !ok || !p.IsActive() {
			return model.OrderDetail{}, errBusiness(CodeProductInactive,
				fmt.Sprintf("product %d is not available", ci.ProductID))
		}
		if ci.Quantity <= 0 {
			return model.OrderDetail{}, errValidation("invalid cart quantity")
		}
		if p.Stock < ci.Quantity {
			return model.OrderDetail{}, errBusiness(CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", p.Name))
		}

		subtotal := p.Price * ci.Quantity
		lines = append(lines, model.OrderItem{
			ProductID:            p.ID,
			ProductNameSnapshot:  p.Name,
			ProductImageSnapshot: p.ImageURL,
			UnitPriceSnapshot:    p.Price,
			Quantity:             ci.Quantity,
			Subtotal:             subtotal,
			CreatedAt:            now,
		})
		total += subtotal
	}

	shippingFee := u.pricing.ShippingFeeFor(total)

	var (
		discount int64
		coupon   model.Coupon
	)
	if couponCode != "" {
		c, decision, err := evaluateCoupon(ctx, u.logger, r.Coupons(), couponCode, total, now)
		if err != nil {
			return model.OrderDetail{}, err
		}
		coupon = c
		discount = decision.DiscountAmount
	}

	code, err := u.codes.Generate(ctx, r.Orders(), now)
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.OrderDetail{}, err
		}
		return model.OrderDetail{}, u.internal(ctx, "order code lookup failed", err)
	}

	order := model.Order{
		OrderCode:      code,
		UserID:         userID,
		AddressID:      addressID,
		TotalAmount:    total,
		ShippingFee:    shippingFee,
		DiscountAmount: discount,
		FinalAmount:    total + shippingFee - discount,
		PaymentMethod:  payment,
		ShippingMethod: shipping,
		Note:           note,
		Status:         model.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if coupon.ID != 0 {
		order.CouponID = &coupon.ID
		order.CouponCode = &coupon.Code
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	orderID, err := r.Orders().Create(ctx, order)
	if errors.Is(err, repo.ErrDuplicate) {
		if key != "" {
			return model.OrderDetail{}, errIdempotencyRace
		}
		return model.OrderDetail{}, errConflict(CodeOrderCodeConflict, "order code collision, please retry")
	}
	if err != nil {
		return model.OrderDetail{}, u.internal(ctx, "create order failed", err)
	}
	order.ID = orderID

	if err := r.OrderItems().CreateBulk(ctx, orderID, lines); err != nil {
		return model.OrderDetail{}, u.internal(ctx, "create order items failed", err)
	}

	first, err := r.Timeline().Append(ctx, model.OrderTimelineEntry{
		OrderID:     orderID,
		Status:      model.OrderStatusPending,
		Label:       model.StatusLabel(model.OrderStatusPending),
		Description: "Order " + code + " placed",
		CreatedAt:   now,
	})
	if err != nil {
		return model.OrderDetail{}, u.internal(ctx, "append timeline failed", err)
	}

	//在庫減算は商品ID順（Tx同士のデッドロック回避）
	byProduct := make([]model.OrderItem, len(lines))
	copy(byProduct, lines)
	sort.Slice(byProduct, func(i, j int) bool { return byProduct[i].ProductID < byProduct[j].ProductID })
	for _, it := range byProduct {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return model.OrderDetail{}, u.internal(ctx, "decrease stock failed", err)
		}
		if !ok {
			//事前チェック後に他の注文に取られた
			return model.OrderDetail{}, errConflict(CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", it.ProductNameSnapshot))
		}
	}

	if coupon.ID != 0 {
		ok, err := r.Coupons().IncrementUsageIfAvailable(ctx, coupon.ID)
		if err != nil {
			return model.OrderDetail{}, u.internal(ctx, "increment coupon usage failed", err)
		}
		if !ok {
			return model.OrderDetail{}, couponRejected(model.CouponExhausted)
		}
	}

	if err := r.Carts().ClearByUserID(ctx, userID); err != nil {
		return model.OrderDetail{}, u.internal(ctx, "clear cart failed", err)
	}

	ev, err := newOrderEvent(model.OrderEventCreated, orderEventPayload{
		OrderID:     orderID,
		OrderCode:   code,
		UserID:      userID,
		Status:      model.OrderStatusPending,
		FinalAmount: order.FinalAmount,
		OccurredAt:  now,
	})
	if err != nil {
		return model.OrderDetail{}, u.internal(ctx, "build order event failed", err)
	}
	if err := r.OrderEvents().Create(ctx, ev); err != nil {
		return model.OrderDetail{}, u.internal(ctx, "write order event failed", err)
	}

	for i := range lines {
		lines[i].OrderID = orderID
	}
	return model.OrderDetail{
		Order:    order,
		Items:    lines,
		Timeline: []model.OrderTimelineEntry{first},
	}, nil
}

// 同じキーで先にcommitされた注文を読み直す
func (u *CheckoutUsecase) replay(ctx context.Context, userID int64, key string) (CheckoutOutput, error) {
	var out CheckoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return u.internal(ctx, "find by idempotency key failed", err)
		}
		if !found {
			return errConflict(CodeConflict, "idempotency conflict, please retry")
		}
		d, err := loadOrderDetail(ctx, r, existing)
		if err != nil {
			return u.internal(ctx, "load replayed order failed", err)
		}
		out = CheckoutOutput{OrderDetail: d, Replayed: true}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	return out, nil
}

func (u *CheckoutUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}

func normalizePaymentMethod(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return PaymentCOD, nil
	case PaymentCOD, PaymentBankTransfer, PaymentCard, PaymentEWallet:
		return s, nil
	}
	return "", errValidation("invalid payment_method")
}

func normalizeShippingMethod(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return ShippingStandard, nil
	case ShippingStandard, ShippingExpress:
		return s, nil
	}
	return "", errValidation("invalid shipping_method")
}
