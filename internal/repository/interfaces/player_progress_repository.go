package interfaces

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"pikapi/internal/modules/battle/engine"
)

// PlayerProgress 玩家的等级与战绩，以及当前等级对应的对手队伍
type PlayerProgress struct {
	PlayerID        string                  `json:"player_id"`
	CurrentLevel    int                     `json:"current_level"`
	MaxLevelReached int                     `json:"max_level_reached"`
	CurrentStreak   int                     `json:"current_streak"`
	BestStreak      int                     `json:"best_streak"`
	TotalWins       int                     `json:"total_wins"`
	TotalLosses     int                     `json:"total_losses"`
	OpponentRoster  *engine.GeneratedRoster `json:"opponent_roster,omitempty"`
	LastBattleID    string                  `json:"last_battle_id,omitempty"`
	Statistics      UsageStats              `json:"statistics"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// UsageStats 出战统计，每场战斗结束时累计一次
type UsageStats struct {
	// CreatureBattles 宝可梦 ID → 出战场次（同一场重复上场只算一次）
	CreatureBattles map[int]int `json:"creature_battles,omitempty"`
	// TeamBattles 队伍组成（排序后的 ID，如 "4-25"）→ 出战场次
	TeamBattles        map[string]int `json:"team_battles,omitempty"`
	MostUsedCreatureID int            `json:"most_used_creature_id,omitempty"`
	MostUsedTeam       []int          `json:"most_used_team,omitempty"`
}

// Record 累计一场战斗的队伍。场次严格超过当前最常用时才替换，平局保留旧值
func (u *UsageStats) Record(team []int) {
	if len(team) == 0 {
		return
	}
	if u.CreatureBattles == nil {
		u.CreatureBattles = make(map[int]int)
	}
	if u.TeamBattles == nil {
		u.TeamBattles = make(map[string]int)
	}

	seen := make(map[int]bool, len(team))
	for _, id := range team {
		if seen[id] {
			continue
		}
		seen[id] = true
		u.CreatureBattles[id]++
		if u.MostUsedCreatureID == 0 || u.CreatureBattles[id] > u.CreatureBattles[u.MostUsedCreatureID] {
			u.MostUsedCreatureID = id
		}
	}

	composition := slices.Sorted(slices.Values(team))
	key := TeamKey(composition)
	u.TeamBattles[key]++
	if len(u.MostUsedTeam) == 0 || u.TeamBattles[key] > u.TeamBattles[TeamKey(u.MostUsedTeam)] {
		u.MostUsedTeam = composition
	}
}

// Clone 深拷贝
func (u UsageStats) Clone() UsageStats {
	u.CreatureBattles = maps.Clone(u.CreatureBattles)
	u.TeamBattles = maps.Clone(u.TeamBattles)
	u.MostUsedTeam = slices.Clone(u.MostUsedTeam)
	return u
}

// TeamKey 队伍组成的统计键，调用方负责先排序
func TeamKey(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "-")
}

// NewPlayerProgress 新玩家从 1 级开始
func NewPlayerProgress(playerID string) *PlayerProgress {
	return &PlayerProgress{
		PlayerID:        playerID,
		CurrentLevel:    1,
		MaxLevelReached: 1,
	}
}

// PlayerProgressRepository 玩家进度存储
type PlayerProgressRepository interface {
	// Get 不存在时返回 ErrPlayerProgressNotFound
	Get(ctx context.Context, playerID string) (*PlayerProgress, error)
	// Save 整条记录覆盖写入
	Save(ctx context.Context, progress *PlayerProgress) error
}
