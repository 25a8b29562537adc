package handler

import (
	"net/http"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CouponHandler struct {
	uc *usecase.CouponUsecase
}

func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{uc: uc}
}

type ValidateCouponRequest struct {
	Code        string `json:"code" validate:"required,max=50"`
	OrderAmount int64  `json:"order_amount" validate:"gte=0"`
}

// 割引の見積もりだけ。used_countは変わらない
func (h *CouponHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/validate", h.validate)
}

func (h *CouponHandler) validate(c echo.Context) error {
	var req ValidateCouponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Validate(c.Request().Context(), usecase.ValidateCouponInput{
		Code:        req.Code,
		OrderAmount: req.OrderAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
