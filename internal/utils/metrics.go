package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount *prometheus.CounterVec
	errorCount   *prometheus.CounterVec

	// Operation name to latency histogram
	operationTimes *prometheus.HistogramVec

	votesCast     *prometheus.CounterVec
	scrapedItems  *prometheus.CounterVec
	chatClients   prometheus.Gauge
	systemStarted prometheus.Gauge
}

func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	mc := &MetricsCollector{
		registry: reg,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nest_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nest_errors_total",
			Help: "Application errors by error code.",
		}, []string{"code"}),
		operationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nest_operation_duration_seconds",
			Help:    "Latency of named operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		votesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nest_votes_total",
			Help: "Votes applied by target kind and direction.",
		}, []string{"target", "direction"}),
		scrapedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nest_scraper_items_total",
			Help: "Opportunities handled by the scraper by outcome.",
		}, []string{"outcome"}),
		chatClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nest_chat_clients",
			Help: "Currently connected chat clients.",
		}),
		systemStarted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nest_start_time_seconds",
			Help: "Unix time the process started.",
		}),
	}

	reg.MustRegister(
		mc.requestCount,
		mc.errorCount,
		mc.operationTimes,
		mc.votesCast,
		mc.scrapedItems,
		mc.chatClients,
		mc.systemStarted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc.systemStarted.Set(float64(time.Now().Unix()))

	return mc
}

func (mc *MetricsCollector) IncrementRequests(route string, status int) {
	mc.requestCount.WithLabelValues(route, http.StatusText(status)).Inc()
}

func (mc *MetricsCollector) IncrementErrors(code string) {
	mc.errorCount.WithLabelValues(code).Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationTimes.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordVote(target, direction string) {
	mc.votesCast.WithLabelValues(target, direction).Inc()
}

func (mc *MetricsCollector) RecordScraped(outcome string, n int) {
	mc.scrapedItems.WithLabelValues(outcome).Add(float64(n))
}

func (mc *MetricsCollector) ChatClientConnected()    { mc.chatClients.Inc() }
func (mc *MetricsCollector) ChatClientDisconnected() { mc.chatClients.Dec() }

func (mc *MetricsCollector) ChatClients() prometheus.Gauge { return mc.chatClients }

func (mc *MetricsCollector) ScrapedItems() *prometheus.CounterVec { return mc.scrapedItems }

// Registry exposes the underlying registry, mainly for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
