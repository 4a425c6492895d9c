package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/notify"
	"pikapi/internal/pkg/xerrors"
)

func countAttacks(events []string) int {
	n := 0
	for _, e := range events {
		if strings.Contains(e, " used ") {
			n++
		}
	}
	return n
}

func TestStartBattle(t *testing.T) {
	ctx := context.Background()

	t.Run("新战斗", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.StartBattle(ctx, "ash", []int{25, 4})
		require.NoError(t, err)
		require.NotNil(t, res.State)

		assert.False(t, res.Resumed)
		assert.NotEmpty(t, res.State.BattleID)
		assert.Equal(t, 1, res.State.Turn)
		assert.Equal(t, engine.StatusOngoing, res.State.Status)
		assert.Equal(t, 1, res.State.PlayerLevel)
		assert.Equal(t, []string{"Go! Pikachu!", "The opponent sent out " + res.State.Opponent.Active().Name + "!"}, res.Events)
		assert.Len(t, res.State.Player.Members, 2)
		assert.Len(t, res.State.Opponent.Members, 3, "1 级对手 3 只")
		require.NotNil(t, res.TeamCost)
		assert.Equal(t, engine.TeamCost{Total: 7, Max: 10, Remaining: 3}, *res.TeamCost, "皮卡丘 4 + 小火龙 3")

		for _, c := range res.State.Player.Members {
			assert.Equal(t, 50, c.Level)
			assert.NotEmpty(t, c.Moves)
		}

		stored, err := f.states.Load(ctx, "ash")
		require.NoError(t, err)
		assert.Equal(t, res.State.BattleID, stored.BattleID)

		progress, err := f.progress.Get(ctx, "ash")
		require.NoError(t, err)
		require.NotNil(t, progress.OpponentRoster, "首次开战时生成并保存对手")

		require.Len(t, f.publisher.subjects, 1)
		assert.Equal(t, notify.SubjectBattleStarted, f.publisher.subjects[0])
	})

	t.Run("重复开战返回进行中的战斗", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.svc.StartBattle(ctx, "ash", []int{25})
		require.NoError(t, err)

		second, err := f.svc.StartBattle(ctx, "ash", []int{1, 4, 7})
		require.NoError(t, err)
		assert.True(t, second.Resumed)
		assert.Equal(t, first.State.BattleID, second.State.BattleID)
		assert.Empty(t, second.Events)
		assert.Len(t, second.State.Player.Members, 1, "不会用新队伍覆盖")
		assert.Equal(t, first.State.Log, second.State.Log)
		require.NotNil(t, second.TeamCost)
		assert.Equal(t, 4, second.TeamCost.Total, "按进行中的队伍计算")
	})

	t.Run("对手队伍在同一等级内复用", func(t *testing.T) {
		f := newFixture(t)

		preview, err := f.svc.GetOpponentPreview(ctx, "ash")
		require.NoError(t, err)

		res, err := f.svc.StartBattle(ctx, "ash", []int{25})
		require.NoError(t, err)
		require.Len(t, res.State.Opponent.Members, len(preview.Roster.Combatants))
		for i, c := range res.State.Opponent.Members {
			assert.Equal(t, preview.Roster.Combatants[i].CreatureID, c.CreatureID)
			assert.Equal(t, preview.Roster.Combatants[i].Stats, c.Stats)
		}
	})

	t.Run("未知宝可梦被跳过并记录降级", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.StartBattle(ctx, "ash", []int{25, 9999})
		require.NoError(t, err)
		assert.Len(t, res.State.Player.Members, 1)
		require.Len(t, res.Fallbacks, 1)
		assert.Equal(t, engine.FallbackUnknownCreature, res.Fallbacks[0].Kind)
		assert.Equal(t, 1.0, testutil.ToFloat64(
			f.metrics.CatalogFallbacksTotal.WithLabelValues(metrics.GetServiceName(), "unknown_creature")))
		for _, line := range res.State.Log {
			assert.NotContains(t, line, "9999", "降级不写入战斗日志")
		}
	})

	t.Run("全部未知", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.StartBattle(ctx, "ash", []int{9998, 9999})
		assert.True(t, xerrors.Is(err, xerrors.CodeCatalogInconsistency))

		stored, _ := f.states.Load(ctx, "ash")
		assert.Nil(t, stored)
	})

	t.Run("队伍费用超过上限", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.StartBattle(ctx, "ash", []int{143, 143, 143, 143, 143, 143})
		require.Error(t, err)
		assert.True(t, xerrors.Is(err, xerrors.CodeInvalidBattleAction))
		assert.Contains(t, err.Error(), "team cost 48 exceeds limit 10")

		stored, _ := f.states.Load(ctx, "ash")
		assert.Nil(t, stored)
		assert.Equal(t, 1.0, testutil.ToFloat64(
			f.metrics.ActionsTotal.WithLabelValues(metrics.GetServiceName(), "start", "rejected")))

		// 刚好用满上限可以开战
		res, err := f.svc.StartBattle(ctx, "ash", []int{143, 10, 13})
		require.NoError(t, err)
		assert.Equal(t, 0, res.TeamCost.Remaining)
	})

	t.Run("自定义费用上限", func(t *testing.T) {
		f := newFixture(t, func(cfg *BattleServiceConfig) { cfg.PlayerTeamMaxCost = 5 })

		_, err := f.svc.StartBattle(ctx, "ash", []int{25, 4})
		assert.True(t, xerrors.Is(err, xerrors.CodeInvalidBattleAction))

		res, err := f.svc.StartBattle(ctx, "ash", []int{25})
		require.NoError(t, err)
		assert.Equal(t, engine.TeamCost{Total: 4, Max: 5, Remaining: 1}, *res.TeamCost)
	})

	t.Run("队伍数量无效", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.StartBattle(ctx, "ash", nil)
		assert.True(t, xerrors.Is(err, xerrors.CodeEmptyRoster))

		_, err = f.svc.StartBattle(ctx, "ash", []int{1, 4, 7, 10, 13, 16, 19})
		assert.True(t, xerrors.Is(err, xerrors.CodeEmptyRoster))
	})
}

func TestUseMove_VictoryAdvancesLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedBattle(t, "ash", 4,
		[]engine.Combatant{fighter("Champion", 100, 200, 50, 100)},
		[]engine.Combatant{fighter("Rival", 80, 50, 50, 10)},
	)

	res, err := f.svc.UseMove(ctx, "ash", 0)
	require.NoError(t, err)

	// floor((22*40*200/50)/50+2)=72，×1.5 本系 ×0.925 = 99
	assert.Equal(t, []string{
		"Champion used Tackle!",
		"It dealt 99 damage.",
		"Rival fainted!",
		"You won the battle!",
	}, res.Events)
	assert.True(t, res.BattleEnded)
	assert.Equal(t, "player", res.Winner)
	assert.Equal(t, engine.StatusPlayerWon, res.State.Status)

	require.NotNil(t, res.Progress)
	assert.Equal(t, 5, res.Progress.CurrentLevel)
	assert.Equal(t, 5, res.Progress.MaxLevelReached)
	assert.Equal(t, 1, res.Progress.CurrentStreak)
	assert.Equal(t, 1, res.Progress.TotalWins)
	require.NotNil(t, res.Progress.OpponentRoster)
	assert.Equal(t, 5, res.Progress.OpponentRoster.PlayerLevel, "按新等级重新生成对手")
	assert.Len(t, res.Progress.OpponentRoster.Combatants, 4)
	assert.Equal(t, 19, res.Progress.Statistics.MostUsedCreatureID, "结束时记录出战队伍")
	assert.Equal(t, []int{19}, res.Progress.Statistics.MostUsedTeam)

	stored, err := f.states.Load(ctx, "ash")
	require.NoError(t, err)
	assert.Nil(t, stored, "结束后清除战斗状态")

	history, err := f.svc.ListBattleHistory(ctx, "ash", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "player_won", history[0].ResultStatus)
	assert.Equal(t, 4, history[0].Level)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, notify.SubjectBattleFinished, f.publisher.subjects[0])
	assert.Equal(t, "player_won", f.publisher.events[0].Result)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.BattlesTotal.WithLabelValues(metrics.GetServiceName(), "player_won")))
}

func TestUseMove_DefeatResetsLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedBattle(t, "ash", 7,
		[]engine.Combatant{fighter("Underdog", 50, 50, 50, 10)},
		[]engine.Combatant{fighter("Boss", 200, 200, 50, 100)},
	)

	res, err := f.svc.UseMove(ctx, "ash", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, countAttacks(res.Events), "玩家倒下后不再出手")
	assert.Contains(t, res.Events, "Underdog fainted!")
	assert.Equal(t, "You lost the battle...", res.Events[len(res.Events)-1])
	assert.False(t, res.State.AwaitingSwitch, "没有存活成员时不会等待换人")
	assert.Equal(t, "opponent", res.Winner)

	assert.Equal(t, 1, res.Progress.CurrentLevel)
	assert.Equal(t, 7, res.Progress.MaxLevelReached)
	assert.Equal(t, 0, res.Progress.CurrentStreak)
	assert.Equal(t, 1, res.Progress.TotalLosses)
	assert.Equal(t, 1, res.Progress.OpponentRoster.PlayerLevel)
	assert.Equal(t, 1, res.Progress.Statistics.CreatureBattles[19], "失败也计入出战统计")
}

func TestSwitchCombatant(t *testing.T) {
	ctx := context.Background()

	t.Run("主动换人对手获得一次攻击", func(t *testing.T) {
		f := newFixture(t)
		f.seedBattle(t, "ash", 2,
			[]engine.Combatant{fighter("Lead", 100, 50, 50, 50), fighter("Bench", 100, 50, 50, 50)},
			[]engine.Combatant{fighter("Foe", 100, 50, 50, 50)},
		)

		res, err := f.svc.SwitchCombatant(ctx, "ash", 1)
		require.NoError(t, err)

		assert.Equal(t, "Go! Bench!", res.Events[0])
		assert.Equal(t, 1, countAttacks(res.Events))
		assert.Equal(t, "Foe used Tackle!", res.Events[1])
		assert.Equal(t, 1, res.State.Player.ActiveIndex)
		assert.Less(t, res.State.Player.Members[1].Stats.CurrentHP, 100)
		assert.Equal(t, 100, res.State.Player.Members[0].Stats.CurrentHP)
		assert.Equal(t, 2, res.State.Turn)
		assert.False(t, res.BattleEnded)

		stored, err := f.states.Load(ctx, "ash")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Player.ActiveIndex)
	})

	t.Run("无效换人不修改状态", func(t *testing.T) {
		f := newFixture(t)
		before := f.seedBattle(t, "ash", 2,
			[]engine.Combatant{fighter("Lead", 100, 50, 50, 50), fighter("Bench", 100, 50, 50, 50)},
			[]engine.Combatant{fighter("Foe", 100, 50, 50, 50)},
		)

		for _, idx := range []int{0, 2, -1} {
			_, err := f.svc.SwitchCombatant(ctx, "ash", idx)
			assert.True(t, xerrors.Is(err, xerrors.CodeInvalidBattleAction), "index %d", idx)
		}

		stored, err := f.states.Load(ctx, "ash")
		require.NoError(t, err)
		assert.Equal(t, before, stored)
	})
}

func TestActionsWithoutBattle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UseMove(ctx, "nobody", 0)
	assert.True(t, xerrors.Is(err, xerrors.CodeNoActiveBattle))

	_, err = f.svc.SwitchCombatant(ctx, "nobody", 1)
	assert.True(t, xerrors.Is(err, xerrors.CodeNoActiveBattle))

	_, err = f.svc.Concede(ctx, "nobody")
	assert.True(t, xerrors.Is(err, xerrors.CodeNoActiveBattle))

	_, err = f.svc.GetBattle(ctx, "nobody")
	assert.True(t, xerrors.Is(err, xerrors.CodeNoActiveBattle))
}

func TestUseMove_OutOfRangeSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBattle(t, "ash", 1,
		[]engine.Combatant{fighter("Lead", 100, 50, 50, 50)},
		[]engine.Combatant{fighter("Foe", 100, 50, 50, 50)},
	)

	_, err := f.svc.UseMove(ctx, "ash", 4)
	assert.True(t, xerrors.Is(err, xerrors.CodeInvalidBattleAction))

	state, err := f.svc.GetBattle(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Turn)
	assert.Len(t, state.Log, 2)
}

func TestConcede(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBattle(t, "ash", 3,
		[]engine.Combatant{fighter("Lead", 100, 50, 50, 50)},
		[]engine.Combatant{fighter("Foe", 100, 50, 50, 50)},
	)

	res, err := f.svc.Concede(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, []string{"You forfeited the battle.", "You lost the battle..."}, res.Events)
	assert.True(t, res.BattleEnded)
	assert.Equal(t, 1, res.Progress.CurrentLevel)
	assert.Equal(t, 3, res.Progress.MaxLevelReached)

	_, err = f.svc.GetBattle(ctx, "ash")
	assert.True(t, xerrors.Is(err, xerrors.CodeNoActiveBattle))
}

func TestBattleFlow_ForcedSwitchThenWin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBattle(t, "ash", 1,
		[]engine.Combatant{fighter("Glass", 10, 50, 50, 10), fighter("Tank", 300, 200, 50, 10)},
		[]engine.Combatant{fighter("Foe", 90, 200, 50, 100)},
	)

	res, err := f.svc.UseMove(ctx, "ash", 0)
	require.NoError(t, err)
	assert.True(t, res.State.AwaitingSwitch)
	assert.False(t, res.BattleEnded)

	_, err = f.svc.UseMove(ctx, "ash", 0)
	assert.True(t, xerrors.Is(err, xerrors.CodeInvalidBattleAction), "等待换人时不能出招")

	res, err = f.svc.SwitchCombatant(ctx, "ash", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go! Tank!"}, res.Events, "强制换人没有额外攻击")
	assert.Equal(t, 2, res.State.Turn)

	res, err = f.svc.UseMove(ctx, "ash", 0)
	require.NoError(t, err)
	assert.True(t, res.BattleEnded)
	assert.Equal(t, "player", res.Winner)
	assert.Equal(t, 2, res.Progress.CurrentLevel)
}
