package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/traidnet/wificore/internal/common/config"
)

type Metrics struct {
	registry   *prometheus.Registry
	namespace  string
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	syncCnt    *prometheus.CounterVec
	syncDur    *prometheus.HistogramVec
	deployCnt  *prometheus.CounterVec
	deployDur  *prometheus.HistogramVec
	deployInfl *prometheus.GaugeVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	syncCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "radius_sync_total"}, []string{"tenant", "status"})
	syncDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "radius_sync_duration_seconds", Buckets: cfg.Buckets}, []string{"tenant", "status"})
	r.MustRegister(syncCnt, syncDur)

	deployCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "deployment_total"}, []string{"status"})
	deployDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "deployment_duration_seconds", Buckets: cfg.Buckets}, []string{"status"})
	deployInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "deployments_inflight"}, []string{"service"})
	r.MustRegister(deployCnt, deployDur, deployInfl)

	return &Metrics{
		registry:   r,
		namespace:  ns,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		syncCnt:    syncCnt,
		syncDur:    syncDur,
		deployCnt:  deployCnt,
		deployDur:  deployDur,
		deployInfl: deployInfl,
	}
}

// SyncDone records a completed RADIUS synchronization for a tenant.
func (m *Metrics) SyncDone(tenant, status string, since time.Time) {
	m.syncCnt.WithLabelValues(tenant, status).Inc()
	m.syncDur.WithLabelValues(tenant, status).Observe(time.Since(since).Seconds())
}

// DeployStart marks a deployment in flight for a service type.
func (m *Metrics) DeployStart(service string) {
	m.deployInfl.WithLabelValues(service).Inc()
}

// DeployDone records a finished deployment attempt.
func (m *Metrics) DeployDone(service, status string, since time.Time) {
	m.deployCnt.WithLabelValues(status).Inc()
	m.deployDur.WithLabelValues(status).Observe(time.Since(since).Seconds())
	m.deployInfl.WithLabelValues(service).Dec()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatus(code int) string { return strconv.Itoa(code) }
