package handler

import (
	"net/http"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

// g は /addresses
func (h *AddressHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/default", h.SetDefault)
}

func (h *AddressHandler) List(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	list, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, list)
}

func (h *AddressHandler) Create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.AddressInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	created, err := h.uc.Create(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *AddressHandler) Update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.AddressInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Update(c.Request().Context(), userID, id, req); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AddressHandler) Delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Delete(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AddressHandler) SetDefault(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.SetDefault(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
