package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsPath = "/metrics"

var httpLabels = []string{"method", "route", "status"}

type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, httpLabels),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, httpLabels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.inFlight)
	return m
}

func (m *httpMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		m.requestsTotal.With(labels).Inc()
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// mountMetrics serves a private registry on /metrics unless METRICS_ENABLED
// is false. Domain packages register their collectors via MetricsRegisterer.
func (routerService *RouterService) mountMetrics() {
	if !routerService.settings.metricsEnabled {
		routerService.logger.Info("Metrics disabled (METRICS_ENABLED=false)")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	routerService.registry = reg

	routerService.engine.Use(newHTTPMetrics(reg).middleware())
	routerService.engine.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Registered before the CORS middleware, so browsers get no CORS grant.
	routerService.engine.OPTIONS(metricsPath, func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
	})

	routerService.logger.Info("Metrics endpoint mounted", "path", metricsPath)
}

// MetricsRegisterer returns the registry served on /metrics, or nil when
// metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.registry == nil {
		return nil
	}
	return routerService.registry
}
