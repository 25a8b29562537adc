package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	// result: ok / 失敗時はエラーコード（EMPTY_CART, INSUFFICIENT_STOCK, ...）
	Checkouts *prometheus.CounterVec
	// from, to, result
	Transitions *prometheus.CounterVec
	// event_type, result
	OutboxPublished *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacy",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pharmacy",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route", "method"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacy",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacy",
			Name:      "order_transitions_total",
			Help:      "Order status transition attempts.",
		}, []string{"from", "to", "result"}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacy",
			Name:      "outbox_events_total",
			Help:      "Order events handled by the outbox relay.",
		}, []string{"event_type", "result"}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.Transitions, m.OutboxPublished)
	return m
}

// ObserveCheckout はnilでも呼べる
func (m *Metrics) ObserveCheckout(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) ObserveOutbox(eventType, result string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(eventType, result).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
