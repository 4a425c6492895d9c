package service

import (
	"context"
	"errors"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/repository/interfaces"
)

// ProgressionService 玩家等级推进与对手队伍维护
//
// 胜利：等级 +1；失败（含认输）：等级重置为 1。两种情况都按新等级重新生成对手，
// 并把本场出战队伍计入出战统计。
type ProgressionService struct {
	progressRepo interfaces.PlayerProgressRepository
	catalog      interfaces.CatalogRepository
	src          engine.Source
	metrics      *metrics.BattleMetrics
	logger       log.Logger
}

// NewProgressionService 构造函数
func NewProgressionService(
	progressRepo interfaces.PlayerProgressRepository,
	catalog interfaces.CatalogRepository,
	src engine.Source,
	m *metrics.BattleMetrics,
	logger log.Logger,
) *ProgressionService {
	if logger == nil {
		logger = log.GetLogger()
	}
	if m == nil {
		m = metrics.DefaultBattleMetrics
	}
	return &ProgressionService{
		progressRepo: progressRepo,
		catalog:      catalog,
		src:          src,
		metrics:      m,
		logger:       logger.With("component", "progression"),
	}
}

// Load 读取玩家进度，首次访问返回 1 级的新进度（尚未保存）
func (s *ProgressionService) Load(ctx context.Context, playerID string) (*interfaces.PlayerProgress, error) {
	progress, err := s.progressRepo.Get(ctx, playerID)
	if errors.Is(err, interfaces.ErrPlayerProgressNotFound) {
		return interfaces.NewPlayerProgress(playerID), nil
	}
	if err != nil {
		return nil, storeError(err, "load_progress")
	}
	return progress, nil
}

// EnsureOpponents 返回当前等级的对手队伍；缺失或等级不一致时生成并保存
func (s *ProgressionService) EnsureOpponents(ctx context.Context, progress *interfaces.PlayerProgress) (*engine.GeneratedRoster, error) {
	if r := progress.OpponentRoster; r != nil && r.PlayerLevel == progress.CurrentLevel && len(r.Combatants) > 0 {
		return r, nil
	}
	if err := s.regenerate(ctx, progress); err != nil {
		return nil, err
	}
	if err := s.save(ctx, progress); err != nil {
		return nil, err
	}
	return progress.OpponentRoster, nil
}

// RecordVictory 胜利：升级、连胜 +1，并为新等级生成对手
func (s *ProgressionService) RecordVictory(ctx context.Context, playerID, battleID string, team []int) (*interfaces.PlayerProgress, error) {
	progress, err := s.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	progress.CurrentLevel++
	progress.CurrentStreak++
	progress.TotalWins++
	progress.BestStreak = max(progress.BestStreak, progress.CurrentStreak)
	progress.MaxLevelReached = max(progress.MaxLevelReached, progress.CurrentLevel)
	progress.LastBattleID = battleID
	progress.Statistics.Record(team)

	return s.commit(ctx, progress, "level_up")
}

// RecordDefeat 失败：等级回到 1、连胜清零，并为 1 级重新生成对手
func (s *ProgressionService) RecordDefeat(ctx context.Context, playerID, battleID string, team []int) (*interfaces.PlayerProgress, error) {
	progress, err := s.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	progress.MaxLevelReached = max(progress.MaxLevelReached, progress.CurrentLevel)
	progress.CurrentLevel = 1
	progress.CurrentStreak = 0
	progress.TotalLosses++
	progress.LastBattleID = battleID
	progress.Statistics.Record(team)

	return s.commit(ctx, progress, "level_reset")
}

// commit 生成对手失败不阻塞等级变化，下次预览或开战时会重新生成
func (s *ProgressionService) commit(ctx context.Context, progress *interfaces.PlayerProgress, event string) (*interfaces.PlayerProgress, error) {
	progress.OpponentRoster = nil
	if err := s.regenerate(ctx, progress); err != nil {
		s.logger.WarnContext(ctx, "opponent regeneration deferred",
			log.String("player_id", progress.PlayerID),
			log.Any("error", err))
	}
	if err := s.save(ctx, progress); err != nil {
		return nil, err
	}

	log.LogBusinessEvent(ctx, s.logger, event, "player", progress.PlayerID, map[string]any{
		"level":          progress.CurrentLevel,
		"current_streak": progress.CurrentStreak,
		"max_level":      progress.MaxLevelReached,
		"most_used":      progress.Statistics.MostUsedCreatureID,
	})
	return progress, nil
}

func (s *ProgressionService) regenerate(ctx context.Context, progress *interfaces.PlayerProgress) error {
	roster, err := engine.GenerateOpponents(ctx, s.catalog, progress.CurrentLevel, s.src)
	if err != nil {
		return mapEngineError(err, "generate_opponents")
	}

	service := metrics.GetServiceName()
	s.metrics.RecordOpponentRoster(service, string(roster.Path))
	for _, fb := range roster.Fallbacks {
		s.metrics.RecordFallback(service, string(fb.Kind))
		log.LogFallback(ctx, s.logger, string(fb.Kind), fb.Detail)
	}

	progress.OpponentRoster = roster
	return nil
}

func (s *ProgressionService) save(ctx context.Context, progress *interfaces.PlayerProgress) error {
	if err := s.progressRepo.Save(ctx, progress); err != nil {
		return storeError(err, "save_progress")
	}
	return nil
}
