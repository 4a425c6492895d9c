package impl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pikapi/internal/repository/interfaces"
)

func TestBattleReportRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("成功写入", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBattleReportRepository(db)

		report := &interfaces.BattleReport{
			BattleID:     "b-1",
			PlayerID:     "ash",
			Level:        4,
			ResultStatus: "player_won",
			Turns:        6,
			Events:       json.RawMessage(`["Go! Pikachu!"]`),
		}

		mock.ExpectExec("INSERT INTO game_runtime.battle_reports").
			WithArgs(
				"b-1", "ash", 4, "player_won", 6,
				nil,              // player_team
				nil,              // enemy_team
				sqlmock.AnyArg(), // events
				sqlmock.AnyArg(), // finished_at
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, report))
	})

	t.Run("数据库错误", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBattleReportRepository(db)

		mock.ExpectExec("INSERT INTO game_runtime.battle_reports").
			WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, &interfaces.BattleReport{BattleID: "b-2"})
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestBattleReportRepository_ListByPlayer(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewBattleReportRepository(db)

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{
		"battle_id", "player_id", "level", "result_status", "turns",
		"player_team", "enemy_team", "events", "finished_at",
	}
	mock.ExpectQuery("FROM game_runtime.battle_reports").
		WithArgs("ash", DefaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b-2", "ash", 5, "player_lost", 9, []byte(`[]`), []byte(`[]`), []byte(`["x"]`), finished).
			AddRow("b-1", "ash", 4, "player_won", 6, nil, nil, nil, finished.Add(-time.Hour)))

	reports, err := repo.ListByPlayer(ctx, "ash", 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "b-2", reports[0].BattleID)
	assert.JSONEq(t, `["x"]`, string(reports[0].Events))
	assert.Nil(t, reports[1].Events)
}
