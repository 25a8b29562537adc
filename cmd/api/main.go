package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/config"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/handler"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/infra/cache"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/infra/db"
	infraRepo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/infra/repository"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/server"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const serviceName = "pharmacy-api"

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := telemetry.InitLogger(!cfg.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	//トレース
	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", slog.Any("error", err))
		}
	}()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	//DB接続 + マイグレーション
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//注文キャッシュ（REDIS_ADDRが無ければ使わない）
	var orderCache usecase.OrderCache = usecase.NoopOrderCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, order cache disabled", slog.Any("error", err))
		} else {
			orderCache = cache.NewRedisOrderCache(rdb, cfg.OrderCacheTTL)
		}
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)

	clock := usecase.SystemClock{}
	pricing := model.PricingPolicy{
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	//Usecase生成
	checkoutUC := usecase.NewCheckoutUsecase(txManager, addressRepo, pricing, usecase.NewOrderCodeGenerator(), clock, metrics, logger)
	statusUC := usecase.NewOrderStatusUsecase(txManager, orderCache, clock, metrics, logger)
	queryUC := usecase.NewOrderQueryUsecase(txManager, auditRepo, orderCache, logger)
	couponUC := usecase.NewCouponUsecase(couponRepo, clock, logger)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, pricing, logger)
	addressUC := usecase.NewAddressUsecase(addressRepo, clock, logger)
	productUC := usecase.NewProductUsecase(txManager, productRepo, clock, logger)

	//Handler生成
	e := server.New(server.Options{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: prometheus.DefaultGatherer,
		Ping:     sqlDB.PingContext,
	}, server.Handlers{
		Order:      handler.NewOrderHandler(checkoutUC, statusUC, queryUC),
		AdminOrder: handler.NewAdminOrderHandler(statusUC, queryUC),
		Coupon:     handler.NewCouponHandler(couponUC),
		Cart:       handler.NewCartHandler(cartUC),
		Address:    handler.NewAddressHandler(addressUC),
		Product:    handler.NewProductHandler(productUC),
	})

	//Server起動
	return server.Start(ctx, e, ":"+cfg.Port, logger)
}
