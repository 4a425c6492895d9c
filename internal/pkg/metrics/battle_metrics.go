// File: internal/pkg/metrics/battle_metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BattleMetrics 对战业务指标收集器
type BattleMetrics struct {
	// 战斗结束次数（按结果分组：player_won/player_lost）
	BattlesTotal *prometheus.CounterVec

	// 单场战斗的回合数
	BattleRounds *prometheus.HistogramVec

	// 玩家操作次数（use_move/switch/concede/start）
	ActionsTotal *prometheus.CounterVec

	// 图鉴数据降级次数（按降级类型）
	CatalogFallbacksTotal *prometheus.CounterVec

	// 对手队伍生成次数（budget/fallback_pool/random_topup）
	OpponentRostersTotal *prometheus.CounterVec
}

var (
	// DefaultBattleMetrics 默认的对战指标实例
	DefaultBattleMetrics *BattleMetrics
)

// RoundBuckets 单场战斗回合数的分布
var RoundBuckets = []float64{1, 3, 5, 10, 15, 20, 30, 50, 100}

func init() {
	DefaultBattleMetrics = NewBattleMetrics("pikapi")
}

// NewBattleMetrics 创建新的对战指标收集器
func NewBattleMetrics(namespace string) *BattleMetrics {
	return NewBattleMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewBattleMetricsWithRegistry 创建新的对战指标收集器（使用自定义注册表）
func NewBattleMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BattleMetrics {
	factory := promauto.With(registerer)

	return &BattleMetrics{
		BattlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battles_total",
				Help:      "Total number of finished battles by result",
			},
			[]string{"service", "result"},
		),

		BattleRounds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "battle_rounds",
				Help:      "Number of resolved rounds per finished battle",
				Buckets:   RoundBuckets,
			},
			[]string{"service", "result"},
		),

		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battle_actions_total",
				Help:      "Total number of player battle actions by type and outcome",
			},
			[]string{"service", "action", "outcome"},
		),

		CatalogFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_fallbacks_total",
				Help:      "Number of times battle logic degraded because of inconsistent catalog data",
			},
			[]string{"service", "kind"},
		),

		OpponentRostersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "opponent_rosters_generated_total",
				Help:      "Number of generated opponent rosters by selection path",
			},
			[]string{"service", "path"},
		),
	}
}

// RecordBattleFinished 记录一场战斗结束
func (m *BattleMetrics) RecordBattleFinished(service, result string, rounds int) {
	if m == nil {
		return
	}
	service = normalizeServiceName(service)
	m.BattlesTotal.WithLabelValues(service, result).Inc()
	m.BattleRounds.WithLabelValues(service, result).Observe(float64(rounds))
}

// RecordAction 记录玩家操作，outcome 为 ok/rejected/error
func (m *BattleMetrics) RecordAction(service, action, outcome string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(normalizeServiceName(service), action, outcome).Inc()
}

// RecordFallback 记录一次降级
func (m *BattleMetrics) RecordFallback(service, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.CatalogFallbacksTotal.WithLabelValues(normalizeServiceName(service), kind).Inc()
}

// RecordOpponentRoster 记录对手队伍的生成路径
func (m *BattleMetrics) RecordOpponentRoster(service, path string) {
	if m == nil {
		return
	}
	m.OpponentRostersTotal.WithLabelValues(normalizeServiceName(service), path).Inc()
}
