package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBattleMetrics_RecordBattleFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.RecordBattleFinished("battle", "player_won", 7)
	m.RecordBattleFinished("battle", "player_won", 3)
	m.RecordBattleFinished("battle", "player_lost", 12)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.BattlesTotal.WithLabelValues("battle", "player_won")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BattlesTotal.WithLabelValues("battle", "player_lost")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BattleRounds))
}

func TestBattleMetrics_RecordActionAndFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.RecordAction("battle", "use_move", "ok")
	m.RecordAction("battle", "switch", "rejected")
	m.RecordFallback("battle", "default_moves")
	m.RecordFallback("battle", "")
	m.RecordOpponentRoster("battle", "fallback_pool")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionsTotal.WithLabelValues("battle", "use_move", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionsTotal.WithLabelValues("battle", "switch", "rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogFallbacksTotal.WithLabelValues("battle", "default_moves")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogFallbacksTotal.WithLabelValues("battle", "unknown")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpponentRostersTotal.WithLabelValues("battle", "fallback_pool")))
}

func TestBattleMetrics_NilSafe(t *testing.T) {
	var m *BattleMetrics
	assert.NotPanics(t, func() {
		m.RecordBattleFinished("battle", "player_won", 1)
		m.RecordAction("battle", "concede", "ok")
		m.RecordFallback("battle", "invalid_move")
	})
}

func TestCacheMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetricsWithRegistry("test", reg)
	SetServiceName("battle")
	defer SetServiceName("")

	m.IncCacheHit("catalog")
	m.IncCacheMiss("catalog")
	m.IncCacheMiss("catalog")
	m.IncCacheEvicted("catalog", "")
	m.SetSize("catalog", 4)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHit.WithLabelValues("battle", "catalog")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheMiss.WithLabelValues("battle", "catalog")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheEvict.WithLabelValues("battle", "catalog", "unknown")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.CacheSize.WithLabelValues("battle", "catalog")))
}
