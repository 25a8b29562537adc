package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/config"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/middleware"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
	// DB疎通確認（/health用）。nilなら常にok
	Ping func(ctx context.Context) error
}

// echoを組み立てる（ミドルウェア + /health + /metrics + API）
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Tracing())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(middleware.Metrics(opts.Metrics))

	e.GET("/health", healthHandler(opts.Ping))
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(telemetry.Handler(opts.Gatherer)))
	}

	RegisterRoutes(e, opts.Config, h)
	return e
}

func healthHandler(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ctxが終わるまでサーバーを動かし、終わったらgracefulに止める
func Start(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("http server shutting down")
	return e.Shutdown(shutdownCtx)
}
