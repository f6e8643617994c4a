package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Checkout metrics
	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_checkouts_total",
			Help: "Total number of checkout attempts by result",
		},
		[]string{"result"},
	)

	CheckoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kasir_checkout_duration_seconds",
			Help:    "Checkout commit duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReversalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kasir_reversals_total",
			Help: "Total number of reversed transactions",
		},
	)

	// Alert metrics
	StockAlertsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_stock_alerts_opened_total",
			Help: "Total number of stock alerts opened by source",
		},
		[]string{"source"},
	)

	StockAlertsResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kasir_stock_alerts_resolved_total",
			Help: "Total number of stock alerts resolved",
		},
	)

	StockAlertsEscalated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_stock_alerts_escalated_total",
			Help: "Total number of active stock alerts raised to critical by source",
		},
		[]string{"source"},
	)

	AlertsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_alerts_delivered_total",
			Help: "Total number of alert deliveries to observers by topic",
		},
		[]string{"topic"},
	)

	AlertsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_alerts_dropped_total",
			Help: "Total number of alert deliveries dropped by sink",
		},
		[]string{"sink"},
	)

	RelayFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kasir_alert_relay_failures_total",
			Help: "Total number of failed writes to the alert relay",
		},
	)

	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kasir_ws_clients",
			Help: "Number of connected websocket observers",
		},
	)

	// Monitor metrics
	MonitorTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_monitor_ticks_total",
			Help: "Total number of stock monitor ticks by result",
		},
		[]string{"result"},
	)

	MonitorTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kasir_monitor_tick_duration_seconds",
			Help:    "Stock monitor tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kasir_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kasir_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		CheckoutsTotal,
		CheckoutDuration,
		ReversalsTotal,
		StockAlertsOpened,
		StockAlertsResolved,
		StockAlertsEscalated,
		AlertsPublished,
		AlertsDropped,
		RelayFailures,
		WSClients,
		MonitorTicks,
		MonitorTickDuration,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation into a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
