// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bistro"

type Metrics struct {
	reg *prometheus.Registry

	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	logins       *prometheus.CounterVec
	menuUpdates  *prometheus.CounterVec
	orders       *prometheus.CounterVec
	orderCents   prometheus.Counter
	outboxEvents *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPCs handled, by method and status code.",
		}, []string{"method", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Authentication attempts, by result.",
		}, []string{"result"}),
		menuUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_updates_total",
			Help:      "Menu mutations, by operation and result.",
		}, []string{"operation", "result"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Orders appended to the ledger, by order type.",
		}, []string{"type"}),
		orderCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_subtotal_cents_total",
			Help:      "Sum of submitted order subtotals in cents.",
		}),
		outboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Order events handled by the broadcaster, by result.",
		}, []string{"result"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcRequests,
		m.rpcDuration,
		m.logins,
		m.menuUpdates,
		m.orders,
		m.orderCents,
		m.outboxEvents,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Gauge registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) ObserveRPC(method, code string, took time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, code).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(took.Seconds())
}

// Login results.
const (
	LoginOK        = "ok"
	LoginRejected  = "rejected"
	LoginThrottled = "throttled"
)

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) MenuUpdate(operation string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.menuUpdates.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) OrderSubmitted(orderType string, subtotalCents int64) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(orderType).Inc()
	m.orderCents.Add(float64(subtotalCents))
}

// Outbox results.
const (
	OutboxPublished  = "published"
	OutboxFailed     = "failed"
	OutboxEnqueueErr = "enqueue_error"
)

func (m *Metrics) Outbox(result string) {
	if m == nil {
		return
	}
	m.outboxEvents.WithLabelValues(result).Inc()
}

// OutboxCounter returns the counter behind Outbox(result).
func (m *Metrics) OutboxCounter(result string) prometheus.Counter {
	return m.outboxEvents.WithLabelValues(result)
}
