package metrics

import (
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResourceMetrics 对战服务的外部存储指标
//
// Redis 承载战斗状态和操作锁，按 store 标签区分；Postgres 只在图鉴缓存未命中时被查询，
// 按查询名记录耗时，连接池状态由定时任务采样。
type ResourceMetrics struct {
	RedisCommands        *prometheus.CounterVec   // service, store, command, result
	RedisCommandDuration *prometheus.HistogramVec // service, store, command
	RedisPool            *prometheus.GaugeVec     // service, state

	CatalogQueries       *prometheus.CounterVec   // service, query, result
	CatalogQueryDuration *prometheus.HistogramVec // service, query

	DBPool            *prometheus.GaugeVec // service, state
	DBPoolWaits       *prometheus.GaugeVec // service
	DBPoolWaitSeconds *prometheus.GaugeVec // service
}

// DefaultResourceMetrics 默认实例，pkg/redis 和图鉴仓储在未注入时使用
var DefaultResourceMetrics *ResourceMetrics

// RedisCommandBuckets 0.25ms ~ 0.5s。战斗状态是单个 JSON 值，正常情况下亚毫秒级
var RedisCommandBuckets = prometheus.ExponentialBuckets(0.00025, 2, 12)

// CatalogQueryBuckets 图鉴查询带联表和 array_agg，比 Redis 慢一个量级
var CatalogQueryBuckets = []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2}

func init() {
	DefaultResourceMetrics = NewResourceMetrics("pikapi")
}

// NewResourceMetrics 注册到默认 registry
func NewResourceMetrics(namespace string) *ResourceMetrics {
	return NewResourceMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewResourceMetricsWithRegistry 测试中传入独立的 registry
func NewResourceMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ResourceMetrics {
	factory := promauto.With(registerer)

	return &ResourceMetrics{
		RedisCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "commands_total",
				Help:      "Redis commands by store (battle_state/action_lock) and result (ok/miss/busy/error)",
			},
			[]string{"service", "store", "command", "result"},
		),

		RedisCommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "command_duration_seconds",
				Help:      "Redis command latency by store",
				Buckets:   RedisCommandBuckets,
			},
			[]string{"service", "store", "command"},
		),

		RedisPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "pool_connections",
				Help:      "Redis pool connections by state (total/idle/stale/active)",
			},
			[]string{"service", "state"},
		),

		CatalogQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "queries_total",
				Help:      "Catalog database queries by query name and result (ok/miss/error)",
			},
			[]string{"service", "query", "result"},
		),

		CatalogQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "query_duration_seconds",
				Help:      "Catalog database query latency by query name",
				Buckets:   CatalogQueryBuckets,
			},
			[]string{"service", "query"},
		),

		DBPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "pool_connections",
				Help:      "Database pool connections by state (open/in_use/idle/max_open)",
			},
			[]string{"service", "state"},
		),

		DBPoolWaits: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "pool_waits",
				Help:      "Cumulative number of connections waited for, as reported by database/sql",
			},
			[]string{"service"},
		),

		DBPoolWaitSeconds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "pool_wait_seconds",
				Help:      "Cumulative time blocked waiting for a connection, as reported by database/sql",
			},
			[]string{"service"},
		),
	}
}

// RecordRedisCommand 记录一次 Redis 命令
func (m *ResourceMetrics) RecordRedisCommand(store, command, result string, d time.Duration) {
	if m == nil {
		return
	}
	if store == "" {
		store = StoreOther
	}
	service := GetServiceName()
	m.RedisCommands.WithLabelValues(service, store, command, result).Inc()
	m.RedisCommandDuration.WithLabelValues(service, store, command).Observe(d.Seconds())
}

// RecordRedisPool go-redis PoolStats 的快照
func (m *ResourceMetrics) RecordRedisPool(total, idle, stale uint32) {
	if m == nil {
		return
	}
	service := GetServiceName()
	m.RedisPool.WithLabelValues(service, "total").Set(float64(total))
	m.RedisPool.WithLabelValues(service, "idle").Set(float64(idle))
	m.RedisPool.WithLabelValues(service, "stale").Set(float64(stale))
	m.RedisPool.WithLabelValues(service, "active").Set(float64(total) - float64(idle))
}

// RecordCatalogQuery 记录一次图鉴查询，sql.ErrNoRows 记为 miss
func (m *ResourceMetrics) RecordCatalogQuery(query string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result = ResultMiss
	case err != nil:
		result = ResultError
	}
	service := GetServiceName()
	m.CatalogQueries.WithLabelValues(service, query, result).Inc()
	m.CatalogQueryDuration.WithLabelValues(service, query).Observe(d.Seconds())
}

// RecordDBPool database/sql 连接池快照。WaitCount / WaitDuration 本身是累计值，直接覆盖
func (m *ResourceMetrics) RecordDBPool(stats sql.DBStats) {
	if m == nil {
		return
	}
	service := GetServiceName()
	m.DBPool.WithLabelValues(service, "open").Set(float64(stats.OpenConnections))
	m.DBPool.WithLabelValues(service, "in_use").Set(float64(stats.InUse))
	m.DBPool.WithLabelValues(service, "idle").Set(float64(stats.Idle))
	m.DBPool.WithLabelValues(service, "max_open").Set(float64(stats.MaxOpenConnections))
	m.DBPoolWaits.WithLabelValues(service).Set(float64(stats.WaitCount))
	m.DBPoolWaitSeconds.WithLabelValues(service).Set(stats.WaitDuration.Seconds())
}
