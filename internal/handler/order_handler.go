package handler

import (
	"net/http"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "X-Idempotency-Key"

// /orders（購入者）
type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	status   *usecase.OrderStatusUsecase
	query    *usecase.OrderQueryUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, status *usecase.OrderStatusUsecase, query *usecase.OrderQueryUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, status: status, query: query}
}

type CheckoutRequest struct {
	AddressID      int64  `json:"address_id" validate:"required,gt=0"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=cod bank_transfer card e_wallet"`
	ShippingMethod string `json:"shipping_method" validate:"omitempty,oneof=standard express"`
	CouponCode     string `json:"coupon_code" validate:"max=50"`
	Note           string `json:"note" validate:"max=500"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// gはAuthJWT済みのグループ
// g は /orders
func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get(idempotencyHeader)
	if len(idemKey) > 128 {
		return badRequest(c, "idempotency key too long")
	}

	out, err := h.checkout.Checkout(c.Request().Context(), userID, usecase.CheckoutInput{
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		CouponCode:     req.CouponCode,
		Note:           req.Note,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	if out.Replayed {
		return c.JSON(http.StatusOK, out.OrderDetail)
	}
	return c.JSON(http.StatusCreated, out.OrderDetail)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	page, limit, ok := parsePageQuery(c)
	if !ok {
		return badRequest(c, "invalid page")
	}

	out, err := h.query.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.query.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	//bodyは省略可
	var req CancelOrderRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, err)
		}
	}

	out, err := h.status.CancelMyOrder(c.Request().Context(), userID, id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
