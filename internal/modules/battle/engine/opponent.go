package engine

import (
	"context"
	"errors"
	"fmt"
)

// CreatureCatalog 组建队伍需要的图鉴查询
type CreatureCatalog interface {
	MoveCatalog
	GetCreature(ctx context.Context, id int) (*CreatureInfo, error)
	ListCreaturesByMaxCost(ctx context.Context, maxCost int) ([]CreatureInfo, error)
	ListCreatureIDs(ctx context.Context) ([]int, error)
}

// FallbackPool 低费用的常见宝可梦：Caterpie、Weedle、Pidgey、Rattata、Zubat、Magikarp
var FallbackPool = []int{10, 13, 16, 19, 41, 129}

// Scaling 某一等级的对手规模
type Scaling struct {
	RosterSize     int `json:"roster_size"`
	Budget         int `json:"budget"`
	CombatantLevel int `json:"combatant_level"`
}

// ScalingForLevel 对手规模随玩家等级单调增长
//
//	等级 1-4 → 3 只，5-9 → 4 只，10-14 → 5 只，15+ → 6 只
//	预算 = 7 + 等级
//	对手等级 = min(100, 40 + (等级-1)/2)
func ScalingForLevel(playerLevel int) Scaling {
	playerLevel = max(playerLevel, 1)

	size := 6
	switch {
	case playerLevel < 5:
		size = 3
	case playerLevel < 10:
		size = 4
	case playerLevel < 15:
		size = 5
	}

	return Scaling{
		RosterSize:     size,
		Budget:         7 + playerLevel,
		CombatantLevel: min(MaxLevel, 40+(playerLevel-1)/2),
	}
}

// RosterPath 对手队伍的选取路径
type RosterPath string

const (
	PathBudget       RosterPath = "budget"
	PathFallbackPool RosterPath = "fallback_pool"
	PathRandomTopUp  RosterPath = "random_topup"
)

// GeneratedRoster 生成的对手队伍
type GeneratedRoster struct {
	PlayerLevel int         `json:"player_level"`
	Combatants  []Combatant `json:"combatants"`
	TotalCost   int         `json:"total_cost"`
	Budget      int         `json:"budget"`
	Path        RosterPath  `json:"path"`
	// FallbackUsed 为 true 时总费用可能超出预算
	FallbackUsed bool       `json:"fallback_used"`
	Fallbacks    []Fallback `json:"-"`
}

// GenerateOpponents 按玩家等级生成对手队伍
//
// 先在费用不超过剩余预算的候选中随机贪心选取；数量不足时从 FallbackPool 补充，
// 仍不足则忽略费用从全图鉴随机补齐。选中的宝可梦再经过能力值生成与招式分配。
func GenerateOpponents(ctx context.Context, catalog CreatureCatalog, playerLevel int, src Source) (*GeneratedRoster, error) {
	scaling := ScalingForLevel(playerLevel)
	out := &GeneratedRoster{
		PlayerLevel: playerLevel,
		Budget:      scaling.Budget,
		Path:        PathBudget,
	}

	picked := make([]CreatureInfo, 0, scaling.RosterSize)
	chosen := make(map[int]struct{}, scaling.RosterSize)
	remaining := scaling.Budget

	candidates, err := catalog.ListCreaturesByMaxCost(ctx, scaling.Budget)
	if err != nil {
		return nil, fmt.Errorf("list creatures within budget %d: %w", scaling.Budget, err)
	}
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	shuffleInts(src, order)

	for _, i := range order {
		if len(picked) >= scaling.RosterSize || remaining <= 0 {
			break
		}
		c := candidates[i]
		if _, dup := chosen[c.ID]; dup || c.Cost > remaining {
			continue
		}
		picked = append(picked, c)
		chosen[c.ID] = struct{}{}
		remaining -= c.Cost
	}

	if len(picked) < scaling.RosterSize {
		pool := append([]int(nil), FallbackPool...)
		shuffleInts(src, pool)
		for _, id := range pool {
			if len(picked) >= scaling.RosterSize {
				break
			}
			if _, dup := chosen[id]; dup {
				continue
			}
			info, err := lookupCreature(ctx, catalog, id)
			if err != nil {
				return nil, err
			}
			if info == nil {
				continue
			}
			picked = append(picked, *info)
			chosen[id] = struct{}{}
			out.Path = PathFallbackPool
			out.Fallbacks = append(out.Fallbacks, Fallback{
				Kind:   FallbackOpponentPool,
				Detail: fmt.Sprintf("level %d budget %d: added fallback creature %d", playerLevel, scaling.Budget, id),
			})
		}
	}

	if len(picked) < scaling.RosterSize {
		ids, err := catalog.ListCreatureIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list creature ids: %w", err)
		}
		// 图鉴中可能有失效 ID，限制尝试次数避免死循环
		for attempts := 0; len(picked) < scaling.RosterSize && len(ids) > 0 && attempts < 10*MaxRosterSize; attempts++ {
			id := ids[src.IntN(len(ids))]
			info, err := lookupCreature(ctx, catalog, id)
			if err != nil {
				return nil, err
			}
			if info == nil {
				continue
			}
			picked = append(picked, *info)
			out.Path = PathRandomTopUp
			out.Fallbacks = append(out.Fallbacks, Fallback{
				Kind:   FallbackOpponentTopUp,
				Detail: fmt.Sprintf("level %d: random top-up with creature %d", playerLevel, id),
			})
		}
	}

	if len(picked) == 0 {
		return nil, fmt.Errorf("generate opponents for level %d: %w", playerLevel, ErrEmptyRoster)
	}

	for _, info := range picked {
		c, fallbacks, err := BuildCombatant(ctx, catalog, info, scaling.CombatantLevel, src)
		if err != nil {
			return nil, err
		}
		out.Combatants = append(out.Combatants, c)
		out.TotalCost += c.Cost
		out.Fallbacks = append(out.Fallbacks, fallbacks...)
	}
	out.FallbackUsed = out.Path != PathBudget

	return out, nil
}

// BuildCombatant 计算能力值并分配招式
func BuildCombatant(ctx context.Context, catalog MoveCatalog, info CreatureInfo, level int, src Source) (Combatant, []Fallback, error) {
	level = ClampLevel(level)
	stats, ivs := GenerateStats(info.Base, level, src)
	moves, fallbacks, err := AssignMoves(ctx, catalog, info.ID, src)
	if err != nil {
		return Combatant{}, nil, err
	}
	return Combatant{
		CreatureID: info.ID,
		Name:       DisplayName(info.Name),
		Level:      level,
		Types:      append([]TypeID(nil), info.Types...),
		Base:       info.Base,
		IVs:        ivs,
		Stats:      stats,
		Moves:      moves,
		Cost:       info.Cost,
	}, fallbacks, nil
}

// BuildRoster 按保存的队伍 ID 组建玩家队伍，无法解析的 ID 跳过并记录降级
func BuildRoster(ctx context.Context, catalog CreatureCatalog, ids []int, level int, src Source) ([]Combatant, []Fallback, error) {
	if len(ids) == 0 || len(ids) > MaxRosterSize {
		return nil, nil, fmt.Errorf("%w: roster must contain 1-%d creatures, got %d", ErrInvalidAction, MaxRosterSize, len(ids))
	}

	var (
		members   []Combatant
		fallbacks []Fallback
	)
	for _, id := range ids {
		info, err := lookupCreature(ctx, catalog, id)
		if err != nil {
			return nil, nil, err
		}
		if info == nil {
			fallbacks = append(fallbacks, Fallback{
				Kind:   FallbackUnknownCreature,
				Detail: fmt.Sprintf("creature %d not found in catalog", id),
			})
			continue
		}
		c, fb, err := BuildCombatant(ctx, catalog, *info, level, src)
		if err != nil {
			return nil, nil, err
		}
		members = append(members, c)
		fallbacks = append(fallbacks, fb...)
	}

	if len(members) == 0 {
		return nil, fallbacks, ErrEmptyRoster
	}
	return members, fallbacks, nil
}

// lookupCreature 不存在时返回 (nil, nil)
func lookupCreature(ctx context.Context, catalog CreatureCatalog, id int) (*CreatureInfo, error) {
	info, err := catalog.GetCreature(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load creature %d: %w", id, err)
	}
	return info, nil
}
