package handler

import (
	"net/http"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

type AdminSetStockRequest struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// 公開商品のルートを登録（一覧・検索は別サービス）
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products/:id", h.detail)
}

// 在庫の上書きは管理者のみ
func (h *ProductHandler) RegisterAdminRoutes(g *echo.Group) {
	g.PUT("/inventory/:id", h.setStock)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) setStock(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req AdminSetStockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.AdminSetStock(c.Request().Context(), adminID, productID, usecase.AdminSetStockInput{
		Stock:  req.Stock,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
