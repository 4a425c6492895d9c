package impl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/redis"
	"pikapi/internal/repository/interfaces"
)

// BattleStateKeyPrefix 进行中战斗的 Redis key 前缀
const BattleStateKeyPrefix = "pikapi:battle:state:"

type battleStateRepositoryImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBattleStateRepository 创建基于 Redis 的战斗状态仓储，ttl 到期视为放弃
func NewBattleStateRepository(client *redis.Client, ttl time.Duration) interfaces.BattleStateRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &battleStateRepositoryImpl{client: client.ForStore(metrics.StoreBattleState), ttl: ttl}
}

// BattleStateKey 玩家战斗状态的 key
func BattleStateKey(playerID string) string {
	return BattleStateKeyPrefix + playerID
}

func (r *battleStateRepositoryImpl) Load(ctx context.Context, playerID string) (*engine.BattleState, error) {
	raw, err := r.client.GetBytes(ctx, BattleStateKey(playerID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取战斗状态失败: %w", err)
	}

	var state engine.BattleState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("解析战斗状态失败: %w", err)
	}
	return &state, nil
}

func (r *battleStateRepositoryImpl) Save(ctx context.Context, playerID string, state *engine.BattleState) error {
	if state == nil {
		if err := r.client.DeleteKey(ctx, BattleStateKey(playerID)); err != nil {
			return fmt.Errorf("清除战斗状态失败: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("序列化战斗状态失败: %w", err)
	}
	if err := r.client.SetWithTTL(ctx, BattleStateKey(playerID), raw, r.ttl); err != nil {
		return fmt.Errorf("保存战斗状态失败: %w", err)
	}
	return nil
}
