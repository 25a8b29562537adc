package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/config"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/infra/db"
	infraRepo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/infra/repository"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/outbox"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := telemetry.InitLogger(!cfg.IsProd())

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		logger.Error("connect db", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Error("get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	writer := outbox.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	relay := outbox.NewRelay(infraRepo.NewTxManagerGorm(gormDB), writer, cfg.OutboxPollInterval, metrics, logger)

	logger.Info("outbox relay started", slog.String("topic", outbox.Topic), slog.Any("brokers", cfg.KafkaBrokers))
	relay.Run(ctx)
	logger.Info("outbox relay stopped")
}
