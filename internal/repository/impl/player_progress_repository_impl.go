package impl

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/queries"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/repository/interfaces"
)

type playerProgressRow struct {
	PlayerID        string      `boil:"player_id"`
	CurrentLevel    int         `boil:"current_level"`
	MaxLevelReached int         `boil:"max_level_reached"`
	CurrentStreak   int         `boil:"current_streak"`
	BestStreak      int         `boil:"best_streak"`
	TotalWins       int         `boil:"total_wins"`
	TotalLosses     int         `boil:"total_losses"`
	OpponentRoster  null.JSON   `boil:"opponent_roster"`
	LastBattleID    null.String `boil:"last_battle_id"`
	Statistics      null.JSON   `boil:"statistics"`
	UpdatedAt       time.Time   `boil:"updated_at"`
}

type playerProgressRepositoryImpl struct {
	db *sql.DB
}

// NewPlayerProgressRepository 创建玩家进度仓储
func NewPlayerProgressRepository(db *sql.DB) interfaces.PlayerProgressRepository {
	return &playerProgressRepositoryImpl{db: db}
}

// Get 读取玩家进度
func (r *playerProgressRepositoryImpl) Get(ctx context.Context, playerID string) (*interfaces.PlayerProgress, error) {
	var row playerProgressRow
	err := queries.Raw(`
		SELECT player_id, current_level, max_level_reached, current_streak, best_streak,
		       total_wins, total_losses, opponent_roster, last_battle_id, statistics, updated_at
		FROM game_runtime.player_progress
		WHERE player_id = $1
	`, playerID).Bind(ctx, r.db, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrPlayerProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询玩家进度失败: %w", err)
	}

	progress := &interfaces.PlayerProgress{
		PlayerID:        row.PlayerID,
		CurrentLevel:    row.CurrentLevel,
		MaxLevelReached: row.MaxLevelReached,
		CurrentStreak:   row.CurrentStreak,
		BestStreak:      row.BestStreak,
		TotalWins:       row.TotalWins,
		TotalLosses:     row.TotalLosses,
		LastBattleID:    row.LastBattleID.String,
		UpdatedAt:       row.UpdatedAt,
	}

	if row.OpponentRoster.Valid && len(row.OpponentRoster.JSON) > 0 {
		var roster engine.GeneratedRoster
		if err := json.Unmarshal(row.OpponentRoster.JSON, &roster); err != nil {
			return nil, fmt.Errorf("解析对手队伍失败: %w", err)
		}
		progress.OpponentRoster = &roster
	}

	if row.Statistics.Valid && len(row.Statistics.JSON) > 0 {
		if err := json.Unmarshal(row.Statistics.JSON, &progress.Statistics); err != nil {
			return nil, fmt.Errorf("解析出战统计失败: %w", err)
		}
	}

	return progress, nil
}

// Save upsert 整条进度
func (r *playerProgressRepositoryImpl) Save(ctx context.Context, progress *interfaces.PlayerProgress) error {
	if progress == nil {
		return fmt.Errorf("player progress is nil")
	}

	roster := null.JSON{}
	if progress.OpponentRoster != nil {
		raw, err := json.Marshal(progress.OpponentRoster)
		if err != nil {
			return fmt.Errorf("序列化对手队伍失败: %w", err)
		}
		roster = null.JSONFrom(raw)
	}

	statistics, err := json.Marshal(progress.Statistics)
	if err != nil {
		return fmt.Errorf("序列化出战统计失败: %w", err)
	}

	lastBattleID := null.String{}
	if progress.LastBattleID != "" {
		lastBattleID = null.StringFrom(progress.LastBattleID)
	}

	query := `
		INSERT INTO game_runtime.player_progress (
			player_id, current_level, max_level_reached, current_streak, best_streak,
			total_wins, total_losses, opponent_roster, last_battle_id, statistics, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (player_id) DO UPDATE SET
			current_level     = EXCLUDED.current_level,
			max_level_reached = EXCLUDED.max_level_reached,
			current_streak    = EXCLUDED.current_streak,
			best_streak       = EXCLUDED.best_streak,
			total_wins        = EXCLUDED.total_wins,
			total_losses      = EXCLUDED.total_losses,
			opponent_roster   = EXCLUDED.opponent_roster,
			last_battle_id    = EXCLUDED.last_battle_id,
			statistics        = EXCLUDED.statistics,
			updated_at        = NOW()
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		progress.PlayerID,
		progress.CurrentLevel,
		progress.MaxLevelReached,
		progress.CurrentStreak,
		progress.BestStreak,
		progress.TotalWins,
		progress.TotalLosses,
		roster,
		lastBattleID,
		null.JSONFrom(statistics),
	)
	if err != nil {
		return fmt.Errorf("保存玩家进度失败: %w", err)
	}
	return nil
}
