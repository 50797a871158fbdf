// 文件路径: internal/api/middleware/metrics.go
// 模块说明: 这是 internal 模块里的 Prometheus 指标中间件，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig 配置 HTTP 指标采集。
type MetricsConfig struct {
	Namespace string
	Subsystem string
	SkipPaths []string
	Buckets   []float64
}

// DefaultMetricsConfig 返回默认指标配置。
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "fleetpanel",
		Subsystem: "http",
		SkipPaths: []string{"/health", "/metrics"},
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}
}

// Metrics 持有各 Prometheus 采集器。
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	responseSize     *prometheus.HistogramVec
}

// NewMetrics 注册并返回指标采集器。
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "fleetpanel"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "http"
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = DefaultMetricsConfig().Buckets
	}

	return &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds.",
				Buckets:   cfg.Buckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Current number of requests being served.",
			},
		),
		responseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_size_bytes",
				Help:      "Response size in bytes.",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *metricsResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Middleware 采集每个请求的计数、耗时与响应大小。
func (m *Metrics) Middleware(cfg MetricsConfig) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			path := normalizePath(r.URL.Path)

			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			started := time.Now()
			wrapped := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.status)
			m.requestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(started).Seconds())
			m.responseSize.WithLabelValues(r.Method, path).Observe(float64(wrapped.size))
		})
	}
}

// normalizePath 把路径里的用户名和节点 ID 替换成占位符，避免标签基数爆炸。
// 目录型路由形如 /api/v1/users/{username}/usage 或 /api/v1/nodes/{id}/online。
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 0; i < len(segments)-1; i++ {
		switch segments[i] {
		case "users", "admins", "nodes":
			if segments[i+1] != "" {
				segments[i+1] = "{id}"
			}
			i++
		}
	}
	return strings.Join(segments, "/")
}
