package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// BattleReport 一场已结束战斗的归档记录。
type BattleReport struct {
	BattleID     string          `json:"battle_id"`
	PlayerID     string          `json:"player_id"`
	Level        int             `json:"level"`         // 开战时的玩家等级
	ResultStatus string          `json:"result_status"` // player_won / player_lost
	Turns        int             `json:"turns"`
	PlayerTeam   json.RawMessage `json:"player_team"` // 玩家队伍 JSON
	EnemyTeam    json.RawMessage `json:"enemy_team"`  // 对手队伍 JSON
	Events       json.RawMessage `json:"events"`      // 完整战斗日志 JSON
	FinishedAt   time.Time       `json:"finished_at"`
}

// BattleReportRepository 负责战斗记录的持久化。
type BattleReportRepository interface {
	Create(ctx context.Context, report *BattleReport) error
	// ListByPlayer 按结束时间倒序
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*BattleReport, error)
}
