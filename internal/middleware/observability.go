package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// リクエストIDを付ける（無ければ発行）
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Set(CtxRequestIDKey, id)
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}

// traceparentを引き継いでspanを張る
func Tracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := c.Path()
			ctx, span := telemetry.Tracer().Start(ctx, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", route),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))
			err := next(c)
			span.SetAttributes(attribute.Int("http.status_code", c.Response().Status))
			return err
		}
	}
}

// メソッド・ルート・ステータス・所要時間
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			rid, _ := c.Get(CtxRequestIDKey).(string)
			logger.InfoContext(c.Request().Context(), "request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", rid),
			)
			return nil
		}
	}
}

func Metrics(m *telemetry.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.Requests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.LatencyMS.WithLabelValues(route, method).Observe(float64(time.Since(start).Milliseconds()))
			return nil
		}
	}
}
