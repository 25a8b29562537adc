package handler

import (
	"net/http"
	"strconv"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/middleware"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// usecaseのHTTPErrorをそのままJSONにする
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}

	//500（中身はusecase側でログ済み）
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: usecase.CodeValidation})
}

// JSONを読んでvalidateタグを確認する
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, err.Error())
	}
	return nil
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}

	return id, true
}

// JWTのroleを遷移判定のroleへ
func getActorFromContext(c echo.Context) (usecase.Actor, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Actor{}, false
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	switch role {
	case middleware.RoleAdmin:
		return usecase.Actor{UserID: userID, Role: model.ActorRoleAdmin}, true
	case middleware.RoleUser:
		return usecase.Actor{UserID: userID, Role: model.ActorRoleCustomer}, true
	default:
		return usecase.Actor{}, false
	}
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page/limitは省略可。数値でなければ400
func parsePageQuery(c echo.Context) (int, int, bool) {
	page, limit := 0, 0
	if s := c.QueryParam("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		page = n
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}
