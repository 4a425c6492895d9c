package impl

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/ericlagergren/decimal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/repository/interfaces"
)

var creatureColumns = []string{
	"creature_id", "name", "cost", "hp", "atk", "def", "sp_atk", "sp_def", "speed", "type_ids",
}

var moveColumns = []string{
	"move_id", "move_name", "type_id", "power", "accuracy", "category", "priority",
}

func TestCatalogRepository_GetCreature(t *testing.T) {
	ctx := context.Background()

	t.Run("双属性宝可梦", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.creatures c").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(creatureColumns).
				AddRow(1, "bulbasaur", 3, 45, 49, 49, 65, 65, 45, "{12,4}"))

		info, err := repo.GetCreature(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "bulbasaur", info.Name)
		assert.Equal(t, []engine.TypeID{12, 4}, info.Types)
		assert.Equal(t, 65, info.Base.SpAttack)
		assert.Equal(t, 3, info.Cost)
	})

	t.Run("不存在", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.creatures c").
			WithArgs(9999).
			WillReturnRows(sqlmock.NewRows(creatureColumns))

		_, err := repo.GetCreature(ctx, 9999)
		assert.True(t, errors.Is(err, interfaces.ErrCreatureNotFound))
		assert.True(t, errors.Is(err, engine.ErrNotFound))
	})
}

func TestCatalogRepository_QueryMetrics(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	m := metrics.NewResourceMetricsWithRegistry("test", prometheus.NewRegistry())
	repo := NewCatalogRepositoryWithMetrics(db, m)

	mock.ExpectQuery("FROM catalog.creatures c").
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows(creatureColumns).
			AddRow(25, "pikachu", 4, 35, 55, 40, 50, 50, 90, "{13}"))
	mock.ExpectQuery("FROM catalog.creatures c").
		WithArgs(9999).
		WillReturnRows(sqlmock.NewRows(creatureColumns))
	mock.ExpectQuery("FROM catalog.type_effectiveness").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.GetCreature(ctx, 25)
	require.NoError(t, err)
	_, err = repo.GetCreature(ctx, 9999)
	require.Error(t, err)
	_, err = repo.GetTypeChart(ctx)
	require.Error(t, err)

	service := metrics.GetServiceName()
	count := func(query, result string) float64 {
		return testutil.ToFloat64(m.CatalogQueries.WithLabelValues(service, query, result))
	}
	assert.Equal(t, 1.0, count("get_creature", metrics.ResultOK))
	assert.Equal(t, 1.0, count("get_creature", metrics.ResultMiss))
	assert.Equal(t, 1.0, count("type_chart", metrics.ResultError))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CatalogQueryDuration), "按查询名各一个序列")
}

func TestCatalogRepository_GetMoveDefinitions(t *testing.T) {
	ctx := context.Background()

	t.Run("批量查询", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.moves").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(moveColumns).
				AddRow(33, "tackle", 1, 40, 100, "physical", 0).
				AddRow(52, "ember", 10, 40, 100, "special", 0).
				AddRow(45, "growl", 1, 0, 100, "status", 0))

		moves, err := repo.GetMoveDefinitions(ctx, []int{33, 52, 45, 777})
		require.NoError(t, err)
		require.Len(t, moves, 3)
		assert.Equal(t, engine.CategorySpecial, moves[52].Category)
		assert.Equal(t, engine.CategoryPhysical, moves[45].Category, "未知分类按物理处理")
		assert.Equal(t, 0, moves[45].Power)
		_, ok := moves[777]
		assert.False(t, ok)
	})

	t.Run("空输入不查库", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewCatalogRepository(db)

		moves, err := repo.GetMoveDefinitions(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, moves)
	})

	t.Run("单个招式不存在", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.moves").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows(moveColumns))

		_, err := repo.GetMoveDefinition(ctx, 5)
		assert.True(t, errors.Is(err, interfaces.ErrMoveNotFound))
	})
}

func TestCatalogRepository_TypeEffectiveness(t *testing.T) {
	ctx := context.Background()
	columns := []string{"attacking_type_id", "defending_type_id", "effectiveness"}

	t.Run("完整克制表", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.type_effectiveness").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(10, 12, "2.00").
				AddRow(1, 8, "0.00").
				AddRow(10, 11, "0.50"))

		chart, err := repo.GetTypeChart(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2.0, chart.Pair(10, 12))
		assert.Equal(t, 0.0, chart.Pair(1, 8))
		assert.Equal(t, 0.5, chart.Pair(10, 11))
		assert.Equal(t, 1.0, chart.Pair(3, 3), "缺失组合为中性")
	})

	t.Run("缺失组合返回 1.0", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.type_effectiveness").
			WithArgs(5, 6).
			WillReturnRows(sqlmock.NewRows(columns))

		got, err := repo.GetTypeEffectiveness(ctx, 5, 6)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})
}

func TestCatalogRepository_Listing(t *testing.T) {
	ctx := context.Background()

	t.Run("按费用过滤", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("WHERE c.cost <=").
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(creatureColumns).
				AddRow(10, "caterpie", 1, 45, 30, 35, 20, 20, 45, "{7}").
				AddRow(19, "rattata", 1, 30, 56, 35, 25, 35, 72, "{1}"))

		list, err := repo.ListCreaturesByMaxCost(ctx, 8)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 19, list[1].ID)
	})

	t.Run("全部 ID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("SELECT creature_id AS id FROM catalog.creatures").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(4).AddRow(7))

		ids, err := repo.ListCreatureIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4, 7}, ids)
	})

	t.Run("可学招式", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery("FROM catalog.creature_moves").
			WithArgs(25).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(84).AddRow(85))

		ids, err := repo.GetLegalMoveIDs(ctx, 25)
		require.NoError(t, err)
		assert.Equal(t, []int{84, 85}, ids)
	})
}

func TestDecimalToFloat(t *testing.T) {
	assert.InDelta(t, 0.5, decimalToFloat(types.NewDecimal(decimal.New(50, 2))), 1e-9)
	assert.InDelta(t, 2.0, decimalToFloat(types.NewDecimal(decimal.New(2, 0))), 1e-9)
	assert.Equal(t, 1.0, decimalToFloat(types.Decimal{}))

	nan := types.NewDecimal(new(decimal.Big).SetNaN(false))
	assert.Equal(t, 1.0, decimalToFloat(nan))
}
