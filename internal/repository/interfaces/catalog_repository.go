package interfaces

import (
	"context"

	"pikapi/internal/modules/battle/engine"
)

// CatalogRepository 只读图鉴：宝可梦、招式、属性克制表
//
// 不存在的记录返回包装了 engine.ErrNotFound 的错误。
type CatalogRepository interface {
	GetCreature(ctx context.Context, id int) (*engine.CreatureInfo, error)
	GetLegalMoveIDs(ctx context.Context, creatureID int) ([]int, error)
	GetMoveDefinition(ctx context.Context, moveID int) (*engine.MoveDefinition, error)
	// GetMoveDefinitions 批量查询，不存在的 ID 不出现在结果中
	GetMoveDefinitions(ctx context.Context, moveIDs []int) (map[int]engine.MoveDefinition, error)
	// GetTypeEffectiveness 缺失的组合返回 1.0
	GetTypeEffectiveness(ctx context.Context, attacking, defending engine.TypeID) (float64, error)
	GetTypeChart(ctx context.Context) (engine.TypeChart, error)
	ListCreaturesByMaxCost(ctx context.Context, maxCost int) ([]engine.CreatureInfo, error)
	ListCreatureIDs(ctx context.Context) ([]int, error)
}
