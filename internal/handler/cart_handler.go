package handler

import (
	"net/http"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Note      string `json:"note" validate:"max=255"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

// g は /cart
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:id", h.patchItem)
	g.DELETE("/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), userID, id, usecase.UpdateCartItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.DeleteCartItem(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
