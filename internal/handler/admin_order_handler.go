package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/orders（管理者）
type AdminOrderHandler struct {
	status *usecase.OrderStatusUsecase
	query  *usecase.OrderQueryUsecase
}

func NewAdminOrderHandler(status *usecase.OrderStatusUsecase, query *usecase.OrderQueryUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{status: status, query: query}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// gはAuthJWT + AdminRoleGuard済みの /admin グループ
func (h *AdminOrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.list)
	g.GET("/orders/:id", h.detail)
	g.PUT("/orders/:id/status", h.updateStatus)
	g.GET("/orders/:id/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, ok := parsePageQuery(c)
	if !ok {
		return badRequest(c, "invalid page")
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		userID = &id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid from")
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid to")
		}
		toPtr = &tm
	}

	out, err := h.query.AdminListOrders(c.Request().Context(), usecase.AdminListOrdersInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   fromPtr,
		To:     toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.query.AdminGetOrder(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	//操作した管理者（監査ログ用）
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.status.Transition(c.Request().Context(), orderID, usecase.TransitionInput{
		Status: req.Status,
		Note:   req.Note,
	}, actor)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	logs, err := h.query.AdminAuditTrail(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
