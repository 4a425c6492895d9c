package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics 进程内缓存的命中/未命中/剔除统计。
type CacheMetrics struct {
	CacheHit   *prometheus.CounterVec
	CacheMiss  *prometheus.CounterVec
	CacheEvict *prometheus.CounterVec
	CacheSize  *prometheus.GaugeVec
}

// DefaultCacheMetrics 默认的缓存指标实例
var DefaultCacheMetrics *CacheMetrics

func init() {
	DefaultCacheMetrics = NewCacheMetrics("pikapi")
}

// NewCacheMetricsWithRegistry 使用指定 Registerer 构造 CacheMetrics。
func NewCacheMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *CacheMetrics {
	factory := promauto.With(registerer)

	return &CacheMetrics{
		CacheHit: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Count of in-process cache hits by cache name",
			},
			[]string{"service", "cache"},
		),

		CacheMiss: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_miss_total",
				Help:      "Count of in-process cache misses by cache name",
			},
			[]string{"service", "cache"},
		),

		CacheEvict: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evict_total",
				Help:      "Count of cache evictions grouped by cache name and reason",
			},
			[]string{"service", "cache", "reason"},
		),

		CacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_entries",
				Help:      "Current number of entries held by the cache",
			},
			[]string{"service", "cache"},
		),
	}
}

// NewCacheMetrics 创建默认 registry 的 CacheMetrics。
func NewCacheMetrics(namespace string) *CacheMetrics {
	return NewCacheMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// IncCacheHit 增加缓存命中次数。
func (m *CacheMetrics) IncCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHit.WithLabelValues(GetServiceName(), cache).Inc()
}

// IncCacheMiss 增加缓存未命中次数。
func (m *CacheMetrics) IncCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMiss.WithLabelValues(GetServiceName(), cache).Inc()
}

// IncCacheEvicted 记录缓存剔除次数。
func (m *CacheMetrics) IncCacheEvicted(cache, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.CacheEvict.WithLabelValues(GetServiceName(), cache, reason).Inc()
}

// SetSize 更新缓存条目数。
func (m *CacheMetrics) SetSize(cache string, size int) {
	if m == nil {
		return
	}
	m.CacheSize.WithLabelValues(GetServiceName(), cache).Set(float64(size))
}
