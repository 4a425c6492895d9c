// Package cached 在图鉴仓储前加一层进程内 TTL 缓存。
package cached

import (
	"context"
	"maps"
	"slices"
	"time"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/catalogcache"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/repository/interfaces"
)

type chartKey struct{}

// Catalog 缓存图鉴只读数据；不存在的记录不缓存，每次都透传到下层
type Catalog struct {
	next interfaces.CatalogRepository

	creatures *catalogcache.Cache[int, engine.CreatureInfo]
	learnsets *catalogcache.Cache[int, []int]
	moves     *catalogcache.Cache[int, engine.MoveDefinition]
	byCost    *catalogcache.Cache[int, []engine.CreatureInfo]
	ids       *catalogcache.Cache[chartKey, []int]
	chart     *catalogcache.Cache[chartKey, engine.TypeChart]
}

var _ interfaces.CatalogRepository = (*Catalog)(nil)

// NewCatalog 包装图鉴仓储
func NewCatalog(next interfaces.CatalogRepository, ttl time.Duration, m *metrics.CacheMetrics, logger log.Logger) *Catalog {
	return &Catalog{
		next:      next,
		creatures: catalogcache.New[int, engine.CreatureInfo]("creatures", ttl, m, logger),
		learnsets: catalogcache.New[int, []int]("learnsets", ttl, m, logger),
		moves:     catalogcache.New[int, engine.MoveDefinition]("moves", ttl, m, logger),
		byCost:    catalogcache.New[int, []engine.CreatureInfo]("creatures_by_cost", ttl, m, logger),
		ids:       catalogcache.New[chartKey, []int]("creature_ids", ttl, m, logger),
		chart:     catalogcache.New[chartKey, engine.TypeChart]("type_chart", ttl, m, logger),
	}
}

// WithClock 替换所有缓存的时钟（测试用）
func (c *Catalog) WithClock(clock func() time.Time) *Catalog {
	c.creatures.WithClock(clock)
	c.learnsets.WithClock(clock)
	c.moves.WithClock(clock)
	c.byCost.WithClock(clock)
	c.ids.WithClock(clock)
	c.chart.WithClock(clock)
	return c
}

func (c *Catalog) GetCreature(ctx context.Context, id int) (*engine.CreatureInfo, error) {
	info, err := c.creatures.GetOrLoad(ctx, id, func(ctx context.Context) (engine.CreatureInfo, error) {
		info, err := c.next.GetCreature(ctx, id)
		if err != nil {
			return engine.CreatureInfo{}, err
		}
		return *info, nil
	})
	if err != nil {
		return nil, err
	}
	info.Types = slices.Clone(info.Types)
	return &info, nil
}

func (c *Catalog) GetLegalMoveIDs(ctx context.Context, creatureID int) ([]int, error) {
	ids, err := c.learnsets.GetOrLoad(ctx, creatureID, func(ctx context.Context) ([]int, error) {
		return c.next.GetLegalMoveIDs(ctx, creatureID)
	})
	return slices.Clone(ids), err
}

func (c *Catalog) GetMoveDefinition(ctx context.Context, moveID int) (*engine.MoveDefinition, error) {
	def, err := c.moves.GetOrLoad(ctx, moveID, func(ctx context.Context) (engine.MoveDefinition, error) {
		def, err := c.next.GetMoveDefinition(ctx, moveID)
		if err != nil {
			return engine.MoveDefinition{}, err
		}
		return *def, nil
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// GetMoveDefinitions 命中的直接返回，未命中的合并成一次批量查询
func (c *Catalog) GetMoveDefinitions(ctx context.Context, moveIDs []int) (map[int]engine.MoveDefinition, error) {
	out := make(map[int]engine.MoveDefinition, len(moveIDs))
	var missing []int
	for _, id := range moveIDs {
		if def, ok := c.moves.Get(ctx, id); ok {
			out[id] = def
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.next.GetMoveDefinitions(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, def := range loaded {
		c.moves.Set(ctx, id, def)
		out[id] = def
	}
	return out, nil
}

func (c *Catalog) GetTypeEffectiveness(ctx context.Context, attacking, defending engine.TypeID) (float64, error) {
	chart, err := c.GetTypeChart(ctx)
	if err != nil {
		return 0, err
	}
	return chart.Pair(attacking, defending), nil
}

func (c *Catalog) GetTypeChart(ctx context.Context) (engine.TypeChart, error) {
	chart, err := c.chart.GetOrLoad(ctx, chartKey{}, c.next.GetTypeChart)
	if err != nil {
		return nil, err
	}
	return maps.Clone(chart), nil
}

func (c *Catalog) ListCreaturesByMaxCost(ctx context.Context, maxCost int) ([]engine.CreatureInfo, error) {
	list, err := c.byCost.GetOrLoad(ctx, maxCost, func(ctx context.Context) ([]engine.CreatureInfo, error) {
		return c.next.ListCreaturesByMaxCost(ctx, maxCost)
	})
	if err != nil {
		return nil, err
	}
	out := slices.Clone(list)
	for i := range out {
		out[i].Types = slices.Clone(out[i].Types)
	}
	return out, nil
}

func (c *Catalog) ListCreatureIDs(ctx context.Context) ([]int, error) {
	ids, err := c.ids.GetOrLoad(ctx, chartKey{}, c.next.ListCreatureIDs)
	return slices.Clone(ids), err
}

// PurgeExpired 清理所有过期条目，返回清理数量
func (c *Catalog) PurgeExpired(ctx context.Context) int {
	return c.creatures.PurgeExpired(ctx) +
		c.learnsets.PurgeExpired(ctx) +
		c.moves.PurgeExpired(ctx) +
		c.byCost.PurgeExpired(ctx) +
		c.ids.PurgeExpired(ctx) +
		c.chart.PurgeExpired(ctx)
}

// Invalidate 图鉴更新后清空全部缓存
func (c *Catalog) Invalidate(ctx context.Context) {
	c.creatures.Clear(ctx)
	c.learnsets.Clear(ctx)
	c.moves.Clear(ctx)
	c.byCost.Clear(ctx)
	c.ids.Clear(ctx)
	c.chart.Clear(ctx)
}
