// Package memory 进程内存储，用于测试和不依赖外部基础设施的开发模式。
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/repository/interfaces"
)

// Catalog 内存图鉴
type Catalog struct {
	mu        sync.RWMutex
	creatures map[int]engine.CreatureInfo
	learnset  map[int][]int
	moves     map[int]engine.MoveDefinition
	chart     engine.TypeChart
}

var _ interfaces.CatalogRepository = (*Catalog)(nil)

// NewCatalog 空图鉴
func NewCatalog() *Catalog {
	return &Catalog{
		creatures: make(map[int]engine.CreatureInfo),
		learnset:  make(map[int][]int),
		moves:     make(map[int]engine.MoveDefinition),
		chart:     make(engine.TypeChart),
	}
}

// AddCreature 登记宝可梦及其可学招式
func (c *Catalog) AddCreature(info engine.CreatureInfo, moveIDs ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info.Types = slices.Clone(info.Types)
	c.creatures[info.ID] = info
	c.learnset[info.ID] = slices.Clone(moveIDs)
}

// AddMove 登记招式
func (c *Catalog) AddMove(def engine.MoveDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves[def.ID] = def
}

// SetEffectiveness 登记一组克制关系
func (c *Catalog) SetEffectiveness(attacking, defending engine.TypeID, multiplier float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chart[engine.TypePair{Attacking: attacking, Defending: defending}] = multiplier
}

func (c *Catalog) GetCreature(_ context.Context, id int) (*engine.CreatureInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.creatures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrCreatureNotFound, id)
	}
	info.Types = slices.Clone(info.Types)
	return &info, nil
}

func (c *Catalog) GetLegalMoveIDs(_ context.Context, creatureID int) ([]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.learnset[creatureID]), nil
}

func (c *Catalog) GetMoveDefinition(_ context.Context, moveID int) (*engine.MoveDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.moves[moveID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrMoveNotFound, moveID)
	}
	return &def, nil
}

func (c *Catalog) GetMoveDefinitions(_ context.Context, moveIDs []int) (map[int]engine.MoveDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]engine.MoveDefinition, len(moveIDs))
	for _, id := range moveIDs {
		if def, ok := c.moves[id]; ok {
			out[id] = def
		}
	}
	return out, nil
}

func (c *Catalog) GetTypeEffectiveness(_ context.Context, attacking, defending engine.TypeID) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chart.Pair(attacking, defending), nil
}

func (c *Catalog) GetTypeChart(_ context.Context) (engine.TypeChart, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.chart), nil
}

func (c *Catalog) ListCreaturesByMaxCost(_ context.Context, maxCost int) ([]engine.CreatureInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []engine.CreatureInfo
	for _, id := range slices.Sorted(maps.Keys(c.creatures)) {
		info := c.creatures[id]
		if info.Cost <= maxCost {
			info.Types = slices.Clone(info.Types)
			out = append(out, info)
		}
	}
	return out, nil
}

func (c *Catalog) ListCreatureIDs(_ context.Context) ([]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.creatures)), nil
}
