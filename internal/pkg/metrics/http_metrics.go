package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics 对战 API 的请求指标。route 取 echo 的路由模板，
// 状态码按 2xx/4xx/5xx 归类，具体业务错误码看日志
type HTTPMetrics struct {
	Requests        *prometheus.CounterVec   // service, route, method, status_class
	RequestDuration *prometheus.HistogramVec // service, route, method
	InFlight        *prometheus.GaugeVec     // service, route
}

// DefaultHTTPMetrics Middleware 使用的实例
var DefaultHTTPMetrics *HTTPMetrics

// HTTPBuckets 单位秒。对战操作包含一次状态读写，正常在 50ms 内完成
var HTTPBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// 不计入指标的路径：抓取和探活
var unmeteredPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

const unknownRoute = "unknown"

func init() {
	DefaultHTTPMetrics = NewHTTPMetrics("pikapi")
}

func NewHTTPMetrics(namespace string) *HTTPMetrics {
	return NewHTTPMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

func NewHTTPMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(registerer)

	return &HTTPMetrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Battle API requests by route template, method and status class",
			},
			[]string{"service", "route", "method", "status_class"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Battle API latency by route template and method",
				Buckets:   HTTPBuckets,
			},
			[]string{"service", "route", "method"},
		),
		InFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Battle API requests currently being served, by route template",
			},
			[]string{"service", "route"},
		),
	}
}

// Begin 登记一个进行中的请求，返回的函数在请求结束时调用
func (m *HTTPMetrics) Begin(route, method string) func(status int) {
	service := GetServiceName()
	route = routeLabel(route)
	m.InFlight.WithLabelValues(service, route).Inc()
	start := time.Now()

	return func(status int) {
		m.InFlight.WithLabelValues(service, route).Dec()
		m.Requests.WithLabelValues(service, route, method, StatusClass(status)).Inc()
		m.RequestDuration.WithLabelValues(service, route, method).Observe(time.Since(start).Seconds())
	}
}

// Metered 抓取和探活请求返回 false
func Metered(path string) bool {
	_, skip := unmeteredPaths[path]
	return !skip
}

// StatusClass 200 → "2xx"。没有写出响应（status 为 0）时记为 "unknown"
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return unknownRoute
	}
	return strconv.Itoa(status/100) + "xx"
}

// 未匹配的路由没有模板，统一归为 unknown，防止原始 URL 进入标签
func routeLabel(route string) string {
	if route == "" {
		return unknownRoute
	}
	return route
}
