package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics records counters for the order lifecycle and event fan-out.
type OrderMetrics struct {
	placed     prometheus.Counter
	updated    prometheus.Counter
	canceled   prometheus.Counter
	transition *prometheus.CounterVec
	published  *prometheus.CounterVec
	dropped    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed.",
	})
	updated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_updated_total",
		Help: "Orders with successfully replaced item sets.",
	})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_canceled_total",
		Help: "Orders canceled with stock returned.",
	})
	transition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_published_total",
		Help: "Order events delivered to subscribers.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_dropped_total",
		Help: "Order events dropped because a subscriber buffer was full.",
	}, []string{"event"})
	reg.MustRegister(placed, updated, canceled, transition, published, dropped)
	return &OrderMetrics{
		placed:     placed,
		updated:    updated,
		canceled:   canceled,
		transition: transition,
		published:  published,
		dropped:    dropped,
	}
}

// IncPlaced increments the placed-order counter.
func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// IncUpdated increments the updated-order counter.
func (m *OrderMetrics) IncUpdated() {
	if m == nil || m.updated == nil {
		return
	}
	m.updated.Inc()
}

// IncCanceled increments the canceled-order counter.
func (m *OrderMetrics) IncCanceled() {
	if m == nil || m.canceled == nil {
		return
	}
	m.canceled.Inc()
}

// IncTransition records a status transition to the given target status.
func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transition == nil {
		return
	}
	m.transition.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncPublished records an event delivered to a subscriber.
func (m *OrderMetrics) IncPublished(event string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncDropped records an event dropped on a saturated subscriber.
func (m *OrderMetrics) IncDropped(event string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// NewRegistry returns a registry preloaded with the standard process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the registry over HTTP for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
