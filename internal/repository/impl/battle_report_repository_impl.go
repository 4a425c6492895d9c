package impl

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/queries"

	"pikapi/internal/repository/interfaces"
)

// DefaultHistoryLimit 未指定条数时返回的战斗记录数
const DefaultHistoryLimit = 20

type battleReportRow struct {
	BattleID     string    `boil:"battle_id"`
	PlayerID     string    `boil:"player_id"`
	Level        int       `boil:"level"`
	ResultStatus string    `boil:"result_status"`
	Turns        int       `boil:"turns"`
	PlayerTeam   null.JSON `boil:"player_team"`
	EnemyTeam    null.JSON `boil:"enemy_team"`
	Events       null.JSON `boil:"events"`
	FinishedAt   time.Time `boil:"finished_at"`
}

type battleReportRepositoryImpl struct {
	db *sql.DB
}

// NewBattleReportRepository 创建 BattleReport 仓储实例。
func NewBattleReportRepository(db *sql.DB) interfaces.BattleReportRepository {
	return &battleReportRepositoryImpl{db: db}
}

func (r *battleReportRepositoryImpl) Create(ctx context.Context, report *interfaces.BattleReport) error {
	if report == nil {
		return fmt.Errorf("battle report is nil")
	}

	query := `
		INSERT INTO game_runtime.battle_reports (
			battle_id, player_id, level, result_status, turns,
			player_team, enemy_team, events, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (battle_id) DO UPDATE SET
			result_status = EXCLUDED.result_status,
			turns         = EXCLUDED.turns,
			player_team   = EXCLUDED.player_team,
			enemy_team    = EXCLUDED.enemy_team,
			events        = EXCLUDED.events,
			finished_at   = EXCLUDED.finished_at
	`

	finishedAt := report.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		report.BattleID,
		report.PlayerID,
		report.Level,
		report.ResultStatus,
		report.Turns,
		nullJSON(report.PlayerTeam),
		nullJSON(report.EnemyTeam),
		nullJSON(report.Events),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("插入战斗记录失败: %w", err)
	}
	return nil
}

// ListByPlayer 最近的战斗记录，按结束时间倒序
func (r *battleReportRepositoryImpl) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*interfaces.BattleReport, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var rows []*battleReportRow
	err := queries.Raw(`
		SELECT battle_id, player_id, level, result_status, turns,
		       player_team, enemy_team, events, finished_at
		FROM game_runtime.battle_reports
		WHERE player_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, playerID, limit).Bind(ctx, r.db, &rows)
	if err != nil {
		return nil, fmt.Errorf("查询战斗记录失败: %w", err)
	}

	reports := make([]*interfaces.BattleReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, &interfaces.BattleReport{
			BattleID:     row.BattleID,
			PlayerID:     row.PlayerID,
			Level:        row.Level,
			ResultStatus: row.ResultStatus,
			Turns:        row.Turns,
			PlayerTeam:   rawJSON(row.PlayerTeam),
			EnemyTeam:    rawJSON(row.EnemyTeam),
			Events:       rawJSON(row.Events),
			FinishedAt:   row.FinishedAt,
		})
	}
	return reports, nil
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func rawJSON(j null.JSON) json.RawMessage {
	if !j.Valid {
		return nil
	}
	return json.RawMessage(j.JSON)
}
