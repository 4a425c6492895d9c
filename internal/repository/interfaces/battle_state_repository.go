package interfaces

import (
	"context"

	"pikapi/internal/modules/battle/engine"
)

// BattleStateRepository 按玩家保存进行中的战斗
type BattleStateRepository interface {
	// Load 没有进行中的战斗时返回 (nil, nil)
	Load(ctx context.Context, playerID string) (*engine.BattleState, error)
	// Save state 为 nil 时清除
	Save(ctx context.Context, playerID string, state *engine.BattleState) error
}
