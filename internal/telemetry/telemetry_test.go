package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	logger.With("component", "test").InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestLogger_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Info("plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, ok := rec["trace_id"]
	assert.False(t, ok)
}

func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCheckout("ok")
	m.ObserveCheckout("ok")
	m.ObserveCheckout("INSUFFICIENT_STOCK")
	m.ObserveTransition("pending", "cancelled", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("INSUFFICIENT_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("pending", "cancelled", "ok")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheckout("ok")
		m.ObserveTransition("a", "b", "ok")
		m.ObserveOutbox("order.created", "ok")
	})
}

func TestSetupTracer_NoEndpoint(t *testing.T) {
	shutdown, err := SetupTracer(context.Background(), "pharmacy-api", "", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
