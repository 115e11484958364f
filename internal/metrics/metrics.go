// Package metrics collects and exposes Prometheus metrics for the shop.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers request and order lifecycle metrics.
type Collector struct {
	httpStatus      *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	ordersCreated   prometheus.Counter
	ordersPaid      prometheus.Counter
	webhookOutcomes *prometheus.CounterVec
	cartUpgrades    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bimberek_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bimberek_http_duration_seconds",
			Help:    "HTTP request duration by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bimberek_orders_created_total",
			Help: "Orders created at checkout.",
		}),
		ordersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bimberek_orders_paid_total",
			Help: "Orders transitioned to paid by the payment webhook.",
		}),
		webhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bimberek_webhook_events_total",
			Help: "Payment webhook deliveries by outcome.",
		}, []string{"outcome"}),
		cartUpgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bimberek_cart_upgrades_total",
			Help: "Legacy cart payloads upgraded to the current format.",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpDuration,
		c.ordersCreated,
		c.ordersPaid,
		c.webhookOutcomes,
		c.cartUpgrades,
	)

	return c
}

// RecordHTTPStatus counts one response with the given status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPDuration records the handling time for a route pattern.
func (c *Collector) RecordHTTPDuration(route string, d time.Duration) {
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordOrderCreated counts a checkout that produced an order.
func (c *Collector) RecordOrderCreated() {
	c.ordersCreated.Inc()
}

// RecordOrderPaid counts an order transitioning to paid.
func (c *Collector) RecordOrderPaid() {
	c.ordersPaid.Inc()
}

// RecordWebhook counts a webhook delivery: "paid", "payment_failed",
// "expired", "ignored", "duplicate", or "rejected".
func (c *Collector) RecordWebhook(outcome string) {
	c.webhookOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCartUpgrade counts a legacy cart payload upgrade.
func (c *Collector) RecordCartUpgrade() {
	c.cartUpgrades.Inc()
}

// Handler returns the Prometheus scrape handler for /metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
