// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	BacktestsTotal   *prometheus.CounterVec
	ValidationsTotal *prometheus.CounterVec
	TradesSimulated  prometheus.Counter
	ReportsComputed  prometheus.Counter

	// Provider metrics
	CandleFetchLatency *prometheus.HistogramVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	// Stream metrics
	StreamClients prometheus.Gauge

	// Flow metrics
	FlowSaves prometheus.Counter
	FlowLoads prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "backtest_lab"
	}

	return &Metrics{
		BacktestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "backtests_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "validations_total",
			Help:      "Total number of strategy validations by status",
		}, []string{"status"}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades produced by the simulator",
		}),
		ReportsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "metrics_reports_total",
			Help:      "Total number of metrics reports computed",
		}),
		CandleFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "okx",
			Name:      "fetch_latency_seconds",
			Help:      "OKX market data fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "connected_clients",
			Help:      "Current number of connected WebSocket stream clients",
		}),
		FlowSaves: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "saves_total",
			Help:      "Total number of flow graphs saved",
		}),
		FlowLoads: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "loads_total",
			Help:      "Total number of flow graphs loaded",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktest records a backtest run and its trade count.
func RecordBacktest(status string, trades int) {
	DefaultMetrics.BacktestsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.TradesSimulated.Add(float64(trades))
}

// RecordValidation records a strategy validation.
func RecordValidation(status string) {
	DefaultMetrics.ValidationsTotal.WithLabelValues(status).Inc()
}

// RecordReport records a computed metrics report.
func RecordReport() {
	DefaultMetrics.ReportsComputed.Inc()
}

// RecordCandleFetch records market data fetch latency.
func RecordCandleFetch(endpoint string, seconds float64) {
	DefaultMetrics.CandleFetchLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordHTTPRequest records request duration for a route.
func RecordHTTPRequest(path, method string, seconds float64) {
	DefaultMetrics.RequestDuration.WithLabelValues(path, method).Observe(seconds)
}

// StreamClientConnected increments the connected stream clients gauge.
func StreamClientConnected() {
	DefaultMetrics.StreamClients.Inc()
}

// StreamClientDisconnected decrements the connected stream clients gauge.
func StreamClientDisconnected() {
	DefaultMetrics.StreamClients.Dec()
}

// RecordFlowSave increments the flow save counter.
func RecordFlowSave() {
	DefaultMetrics.FlowSaves.Inc()
}

// RecordFlowLoad increments the flow load counter.
func RecordFlowLoad() {
	DefaultMetrics.FlowLoads.Inc()
}
