package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

func (m *ServerMetrics) Observe(method, route string, status int, ms float64) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(method, route).Observe(ms)
}

// 注文まわりの業務メトリクス
type OrderMetrics struct {
	Checkouts      *prometheus.CounterVec
	OrderAmount    prometheus.Histogram
	SubOrders      prometheus.Histogram
	StatusChanges  *prometheus.CounterVec
	StockMovements *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "total",
			Help:      "Checkouts by outcome (ok or error code).",
		}, []string{"outcome"}),
		OrderAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "final_amount_minor_units",
			Help:      "Final amount of placed orders in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
		SubOrders: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "sub_orders",
			Help:      "Number of seller suborders per order.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "status_changes_total",
			Help:      "Status transitions by resource and target status.",
		}, []string{"resource", "to"}),
		StockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "units_moved_total",
			Help:      "Stock units reserved, released or set.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Checkouts, m.OrderAmount, m.SubOrders, m.StatusChanges, m.StockMovements)
	return m
}

func (m *OrderMetrics) CheckoutSucceeded(sellerCount int, finalAmount int64) {
	m.Checkouts.WithLabelValues("ok").Inc()
	m.OrderAmount.Observe(float64(finalAmount))
	m.SubOrders.Observe(float64(sellerCount))
}

func (m *OrderMetrics) CheckoutFailed(code string) {
	m.Checkouts.WithLabelValues(code).Inc()
}

func (m *OrderMetrics) StatusChanged(resource string, to string) {
	m.StatusChanges.WithLabelValues(resource, to).Inc()
}

func (m *OrderMetrics) StockMoved(reason string, units int64) {
	m.StockMovements.WithLabelValues(reason).Add(float64(units))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
