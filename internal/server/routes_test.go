package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/config"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/handler"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-secret"

// usecaseまで届かないリクエストだけ流すのでnilで足りる
func newRoutesEcho() *echo.Echo {
	return New(Options{
		Config: config.Config{JWTSecret: testSecret},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Handlers{
		Order:      handler.NewOrderHandler(nil, nil, nil),
		AdminOrder: handler.NewAdminOrderHandler(nil, nil),
		Coupon:     handler.NewCouponHandler(nil),
		Cart:       handler.NewCartHandler(nil),
		Address:    handler.NewAddressHandler(nil),
		Product:    handler.NewProductHandler(nil),
	})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  7,
		"role": role,
		"iat":  1,
		"exp":  9999999999,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func get(e *echo.Echo, path, authz string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutes_UnknownPathIsNotFound(t *testing.T) {
	e := newRoutesEcho()

	for _, path := range []string{"/nope", "/ordersx", "/api/orders"} {
		assert.Equal(t, http.StatusNotFound, get(e, path, ""), path)
		assert.Equal(t, http.StatusNotFound, get(e, path, bearer(t, middleware.RoleUser)), path)
	}
}

func TestRoutes_AuthBoundaries(t *testing.T) {
	e := newRoutesEcho()
	user := bearer(t, middleware.RoleUser)

	tests := []struct {
		name  string
		path  string
		authz string
		want  int
	}{
		{"orders without token", "/orders", "", http.StatusUnauthorized},
		{"cart without token", "/cart", "", http.StatusUnauthorized},
		{"addresses without token", "/addresses", "", http.StatusUnauthorized},
		{"admin without token", "/admin/orders", "", http.StatusUnauthorized},
		{"admin as user", "/admin/orders", user, http.StatusForbidden},
		//ハンドラまで届く（idの検証で400）
		{"orders as user", "/orders/abc", user, http.StatusBadRequest},
		{"orders page as user", "/orders?page=x", user, http.StatusBadRequest},
		{"health is public", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(e, tt.path, tt.authz))
		})
	}
}
