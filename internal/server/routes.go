package server

import (
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/config"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/handler"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Coupon     *handler.CouponHandler
	Cart       *handler.CartHandler
	Address    *handler.AddressHandler
	Product    *handler.ProductHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	//公開
	h.Product.RegisterRoutes(e)

	//ログイン必須。グループはリソースごと（未定義のパスは404のまま）
	auth := middleware.AuthJWT(cfg)
	h.Order.RegisterRoutes(e.Group("/orders", auth))
	h.Coupon.RegisterRoutes(e.Group("/coupons", auth))
	h.Cart.RegisterRoutes(e.Group("/cart", auth))
	h.Address.RegisterRoutes(e.Group("/addresses", auth))

	//管理者
	admin := e.Group("/admin", auth, middleware.AdminRoleGuard())
	h.AdminOrder.RegisterRoutes(admin)
	h.Product.RegisterAdminRoutes(admin)
}
