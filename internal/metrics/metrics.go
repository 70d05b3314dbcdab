package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StockOperations counts mutations by operation and outcome.
	StockOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktrack_stock_operations_total",
			Help: "Total number of stock mutations",
		},
		[]string{"operation", "outcome"},
	)

	// IndexMaintenanceFailures counts best-effort low-stock index updates
	// that failed after a successful mutation.
	IndexMaintenanceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stocktrack_index_maintenance_failures_total",
			Help: "Total number of failed low-stock index updates",
		},
	)

	// EventAppendFailures counts audit events that could not be appended.
	EventAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stocktrack_event_append_failures_total",
			Help: "Total number of failed inventory event appends",
		},
	)

	// SalesRecordFailures counts sales-aggregate updates that failed.
	SalesRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stocktrack_sales_record_failures_total",
			Help: "Total number of failed sales aggregate updates",
		},
	)

	// InventoryLevel tracks the last observed quantity per SKU.
	InventoryLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stocktrack_inventory_quantity",
			Help: "Current inventory quantity per SKU",
		},
		[]string{"sku"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktrack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocktrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware records request count and duration for every route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			method := c.Request().Method
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)

			httpRequests.WithLabelValues(method, path, status).Inc()
			httpDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
