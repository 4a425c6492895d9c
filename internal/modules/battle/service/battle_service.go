// Package service 对战服务：开战、出招、换人、认输，以及等级推进与战斗记录。
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/notify"
	"pikapi/internal/pkg/xerrors"
	"pikapi/internal/repository/interfaces"
)

// EventPublisher 战斗事件发布
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event notify.BattleEvent) error
}

// ActionResult 每个操作返回更新后的状态和本次新增的日志
type ActionResult struct {
	State       *engine.BattleState        `json:"state"`
	Events      []string                   `json:"events"`
	BattleEnded bool                       `json:"battle_ended"`
	Winner      string                     `json:"winner,omitempty"`
	Resumed     bool                       `json:"resumed,omitempty"`
	TeamCost    *engine.TeamCost           `json:"team_cost,omitempty"`
	Fallbacks   []engine.Fallback          `json:"fallbacks,omitempty"`
	Progress    *interfaces.PlayerProgress `json:"progress,omitempty"`
}

// OpponentPreview 玩家当前等级的对手，可在开战前查看
type OpponentPreview struct {
	Level   int                     `json:"level"`
	Scaling engine.Scaling          `json:"scaling"`
	Roster  *engine.GeneratedRoster `json:"roster"`
}

// BattleService 对战流程编排：读取状态 → 引擎结算 → 持久化
//
// 同一玩家的操作由调用方串行化（见 handler 的操作锁）。
type BattleService struct {
	states      interfaces.BattleStateRepository
	reports     interfaces.BattleReportRepository
	catalog     interfaces.CatalogRepository
	progression *ProgressionService
	engine      *engine.Engine
	publisher   EventPublisher
	metrics     *metrics.BattleMetrics
	logger      log.Logger
	now         func() time.Time

	playerLevel int
	teamMaxCost int
}

// BattleServiceConfig 对战服务的可选参数
type BattleServiceConfig struct {
	// PlayerCombatantLevel 玩家宝可梦的战斗等级
	PlayerCombatantLevel int
	// PlayerTeamMaxCost 玩家队伍费用上限，<=0 时使用 engine.DefaultTeamMaxCost
	PlayerTeamMaxCost int
	Publisher            EventPublisher
	Metrics              *metrics.BattleMetrics
	Logger               log.Logger
	Clock                func() time.Time
}

// NewBattleService 构造函数
func NewBattleService(
	states interfaces.BattleStateRepository,
	reports interfaces.BattleReportRepository,
	catalog interfaces.CatalogRepository,
	progression *ProgressionService,
	eng *engine.Engine,
	cfg BattleServiceConfig,
) *BattleService {
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultBattleMetrics
	}
	if cfg.Publisher == nil {
		cfg.Publisher = notify.Publisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.PlayerCombatantLevel <= 0 {
		cfg.PlayerCombatantLevel = engine.DefaultLevel
	}
	if cfg.PlayerTeamMaxCost <= 0 {
		cfg.PlayerTeamMaxCost = engine.DefaultTeamMaxCost
	}
	return &BattleService{
		states:      states,
		reports:     reports,
		catalog:     catalog,
		progression: progression,
		engine:      eng,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.With("component", "battle_service"),
		now:         cfg.Clock,
		playerLevel: engine.ClampLevel(cfg.PlayerCombatantLevel),
		teamMaxCost: cfg.PlayerTeamMaxCost,
	}
}

// StartBattle 以玩家保存的队伍开战
//
// 已有进行中的战斗时原样返回（Resumed=true），不会生成第二场。
// 队伍总费用超过上限时以 CodeInvalidBattleAction 拒绝。
func (s *BattleService) StartBattle(ctx context.Context, playerID string, creatureIDs []int) (*ActionResult, error) {
	ctx = log.WithPlayer(ctx, playerID)

	existing, err := s.states.Load(ctx, playerID)
	if err != nil {
		return nil, storeError(err, "load_battle")
	}
	if existing != nil && !existing.Status.Finished() {
		s.metrics.RecordAction(metrics.GetServiceName(), "start", "resumed")
		cost, _ := engine.CheckTeamCost(existing.Player.Members, s.teamMaxCost)
		return &ActionResult{State: existing, Events: []string{}, Resumed: true, TeamCost: &cost}, nil
	}

	progress, err := s.progression.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	opponents, err := s.progression.EnsureOpponents(ctx, progress)
	if err != nil {
		return nil, err
	}

	members, fallbacks, err := engine.BuildRoster(ctx, s.catalog, creatureIDs, s.playerLevel, s.engine.Source())
	s.reportFallbacks(ctx, fallbacks)
	if err != nil {
		s.metrics.RecordAction(metrics.GetServiceName(), "start", "rejected")
		return nil, mapRosterError(err)
	}
	cost, err := engine.CheckTeamCost(members, s.teamMaxCost)
	if err != nil {
		s.metrics.RecordAction(metrics.GetServiceName(), "start", "rejected")
		appErr := mapEngineError(err, "start").WithPlayer(playerID)
		log.LogAppError(ctx, s.logger, "player team over cost limit", appErr)
		return nil, appErr
	}

	battleID := uuid.NewString()
	state, out, err := s.engine.NewBattle(battleID, playerID, progress.CurrentLevel, members, cloneCombatants(opponents.Combatants), s.now())
	if err != nil {
		return nil, mapEngineError(err, "start")
	}
	if err := s.states.Save(ctx, playerID, state); err != nil {
		return nil, storeError(err, "save_battle")
	}

	s.metrics.RecordAction(metrics.GetServiceName(), "start", "ok")
	log.LogBusinessEvent(ctx, s.logger, "battle_started", "battle", battleID, map[string]any{
		"player_id":      playerID,
		"level":          progress.CurrentLevel,
		"player_team":    len(members),
		"player_cost":    cost.Total,
		"opponent_team":  len(opponents.Combatants),
		"opponent_path":  string(opponents.Path),
		"opponent_total": opponents.TotalCost,
	})
	s.publish(ctx, notify.SubjectBattleStarted, state)

	return &ActionResult{State: state, Events: out.Events, Fallbacks: fallbacks, TeamCost: &cost}, nil
}

// UseMove 玩家使用在场宝可梦的第 slot 个招式
func (s *BattleService) UseMove(ctx context.Context, playerID string, slot int) (*ActionResult, error) {
	return s.act(ctx, playerID, "use_move", func(state *engine.BattleState, rules *engine.Ruleset) (*engine.Outcome, error) {
		return s.engine.UseMove(state, rules, slot)
	})
}

// SwitchCombatant 换上第 index 只宝可梦；非强制换人时对手获得一次攻击
func (s *BattleService) SwitchCombatant(ctx context.Context, playerID string, index int) (*ActionResult, error) {
	return s.act(ctx, playerID, "switch", func(state *engine.BattleState, rules *engine.Ruleset) (*engine.Outcome, error) {
		return s.engine.Switch(state, rules, index)
	})
}

// Concede 认输，按失败结算
func (s *BattleService) Concede(ctx context.Context, playerID string) (*ActionResult, error) {
	return s.act(ctx, playerID, "concede", func(state *engine.BattleState, _ *engine.Ruleset) (*engine.Outcome, error) {
		return s.engine.Concede(state)
	})
}

// GetBattle 当前进行中的战斗
func (s *BattleService) GetBattle(ctx context.Context, playerID string) (*engine.BattleState, error) {
	state, err := s.states.Load(ctx, playerID)
	if err != nil {
		return nil, storeError(err, "load_battle")
	}
	if state == nil {
		return nil, xerrors.NewNoActiveBattleError(playerID)
	}
	return state, nil
}

// GetOpponentPreview 当前等级的对手队伍，首次访问时生成
func (s *BattleService) GetOpponentPreview(ctx context.Context, playerID string) (*OpponentPreview, error) {
	progress, err := s.progression.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	roster, err := s.progression.EnsureOpponents(ctx, progress)
	if err != nil {
		return nil, err
	}
	return &OpponentPreview{
		Level:   progress.CurrentLevel,
		Scaling: engine.ScalingForLevel(progress.CurrentLevel),
		Roster:  roster,
	}, nil
}

// GetProgress 玩家进度
func (s *BattleService) GetProgress(ctx context.Context, playerID string) (*interfaces.PlayerProgress, error) {
	return s.progression.Load(ctx, playerID)
}

// ListBattleHistory 最近的战斗记录，新的在前
func (s *BattleService) ListBattleHistory(ctx context.Context, playerID string, limit int) ([]*interfaces.BattleReport, error) {
	reports, err := s.reports.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, storeError(err, "list_battle_reports")
	}
	return reports, nil
}

type actionFunc func(state *engine.BattleState, rules *engine.Ruleset) (*engine.Outcome, error)

// act 所有战斗内操作的公共流程；引擎拒绝时不写回任何状态
func (s *BattleService) act(ctx context.Context, playerID, action string, apply actionFunc) (*ActionResult, error) {
	ctx = log.WithPlayer(ctx, playerID)
	service := metrics.GetServiceName()

	state, err := s.states.Load(ctx, playerID)
	if err != nil {
		return nil, storeError(err, "load_battle")
	}
	if state == nil {
		s.metrics.RecordAction(service, action, "no_battle")
		return nil, xerrors.NewNoActiveBattleError(playerID)
	}
	ctx = log.WithBattle(ctx, state.BattleID)

	var rules *engine.Ruleset
	if action != "concede" {
		if rules, err = s.ruleset(ctx, state); err != nil {
			return nil, err
		}
	}

	out, err := apply(state, rules)
	if err != nil {
		s.metrics.RecordAction(service, action, "rejected")
		appErr := mapEngineError(err, action).WithPlayer(playerID)
		log.LogAppError(ctx, s.logger, "battle action rejected", appErr)
		return nil, appErr
	}
	s.metrics.RecordAction(service, action, "ok")
	s.reportFallbacks(ctx, out.Fallbacks)

	result := &ActionResult{
		State:     state,
		Events:    out.Events,
		Fallbacks: out.Fallbacks,
	}

	if !state.Status.Finished() {
		if err := s.states.Save(ctx, playerID, state); err != nil {
			return nil, storeError(err, "save_battle")
		}
		return result, nil
	}

	progress, err := s.finish(ctx, state)
	if err != nil {
		return nil, err
	}
	result.BattleEnded = true
	result.Winner = state.Status.Winner()
	result.Progress = progress
	return result, nil
}

// ruleset 回合开始前一次性读取本场战斗需要的招式和克制表
func (s *BattleService) ruleset(ctx context.Context, state *engine.BattleState) (*engine.Ruleset, error) {
	moves, err := s.catalog.GetMoveDefinitions(ctx, engine.MoveIDs(state))
	if err != nil {
		return nil, mapEngineError(err, "load_moves")
	}
	chart, err := s.catalog.GetTypeChart(ctx)
	if err != nil {
		return nil, mapEngineError(err, "load_type_chart")
	}
	return &engine.Ruleset{Moves: moves, Chart: chart}, nil
}

// finish 结算等级、清除战斗状态、归档记录
func (s *BattleService) finish(ctx context.Context, state *engine.BattleState) (*interfaces.PlayerProgress, error) {
	var (
		progress *interfaces.PlayerProgress
		err      error
	)
	team := make([]int, len(state.Player.Members))
	for i, c := range state.Player.Members {
		team[i] = c.CreatureID
	}
	if state.Status == engine.StatusPlayerWon {
		progress, err = s.progression.RecordVictory(ctx, state.PlayerID, state.BattleID, team)
	} else {
		progress, err = s.progression.RecordDefeat(ctx, state.PlayerID, state.BattleID, team)
	}
	if err != nil {
		return nil, err
	}

	if err := s.states.Save(ctx, state.PlayerID, nil); err != nil {
		return nil, storeError(err, "clear_battle")
	}

	// 以下失败只记录日志，战斗结果已经生效
	if err := s.archive(ctx, state); err != nil {
		s.logger.Error("battle report archive failed", err, log.String("battle_id", state.BattleID))
	}

	rounds := state.Turn - 1
	s.metrics.RecordBattleFinished(metrics.GetServiceName(), string(state.Status), rounds)
	log.LogBusinessEvent(ctx, s.logger, "battle_finished", "battle", state.BattleID, map[string]any{
		"player_id": state.PlayerID,
		"result":    string(state.Status),
		"rounds":    rounds,
		"level":     state.PlayerLevel,
	})
	s.publish(ctx, notify.SubjectBattleFinished, state)

	return progress, nil
}

func (s *BattleService) archive(ctx context.Context, state *engine.BattleState) error {
	playerTeam, err := json.Marshal(state.Player.Members)
	if err != nil {
		return err
	}
	enemyTeam, err := json.Marshal(state.Opponent.Members)
	if err != nil {
		return err
	}
	events, err := json.Marshal(state.Log)
	if err != nil {
		return err
	}
	return s.reports.Create(ctx, &interfaces.BattleReport{
		BattleID:     state.BattleID,
		PlayerID:     state.PlayerID,
		Level:        state.PlayerLevel,
		ResultStatus: string(state.Status),
		Turns:        state.Turn - 1,
		PlayerTeam:   playerTeam,
		EnemyTeam:    enemyTeam,
		Events:       events,
		FinishedAt:   s.now(),
	})
}

func (s *BattleService) publish(ctx context.Context, subject string, state *engine.BattleState) {
	event := notify.BattleEvent{
		BattleID:   state.BattleID,
		PlayerID:   state.PlayerID,
		Level:      state.PlayerLevel,
		Turns:      state.Turn - 1,
		OccurredAt: s.now(),
	}
	if state.Status.Finished() {
		event.Result = string(state.Status)
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.WarnContext(ctx, "battle event publish failed",
			log.String("subject", subject),
			log.Any("error", err))
	}
}

// reportFallbacks 降级只进指标和 WARN 日志，不写入战斗日志
func (s *BattleService) reportFallbacks(ctx context.Context, fallbacks []engine.Fallback) {
	service := metrics.GetServiceName()
	for _, fb := range fallbacks {
		s.metrics.RecordFallback(service, string(fb.Kind))
		log.LogFallback(ctx, s.logger, string(fb.Kind), fb.Detail)
	}
}

// mapRosterError 组队阶段的数量错误单独使用 CodeEmptyRoster
func mapRosterError(err error) *xerrors.AppError {
	appErr := mapEngineError(err, "start")
	if appErr.Code == xerrors.CodeInvalidBattleAction {
		return xerrors.New(xerrors.CodeEmptyRoster, err.Error()).WithOperation("start")
	}
	return appErr
}

func cloneCombatants(in []engine.Combatant) []engine.Combatant {
	out := make([]engine.Combatant, len(in))
	for i, c := range in {
		c.Types = append([]engine.TypeID(nil), c.Types...)
		c.Moves = append([]int(nil), c.Moves...)
		c.Stats.CurrentHP = c.Stats.MaxHP
		out[i] = c
	}
	return out
}
