package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/repository/interfaces"
)

// BattleStateStore 内存战斗状态，读写都做深拷贝
type BattleStateStore struct {
	mu     sync.Mutex
	states map[string]*engine.BattleState
}

var _ interfaces.BattleStateRepository = (*BattleStateStore)(nil)

func NewBattleStateStore() *BattleStateStore {
	return &BattleStateStore{states: make(map[string]*engine.BattleState)}
}

func (s *BattleStateStore) Load(_ context.Context, playerID string) (*engine.BattleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[playerID].Clone(), nil
}

func (s *BattleStateStore) Save(_ context.Context, playerID string, state *engine.BattleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		delete(s.states, playerID)
		return nil
	}
	s.states[playerID] = state.Clone()
	return nil
}

// PlayerProgressStore 内存玩家进度
type PlayerProgressStore struct {
	mu       sync.Mutex
	progress map[string]interfaces.PlayerProgress
	now      func() time.Time
}

var _ interfaces.PlayerProgressRepository = (*PlayerProgressStore)(nil)

func NewPlayerProgressStore() *PlayerProgressStore {
	return &PlayerProgressStore{
		progress: make(map[string]interfaces.PlayerProgress),
		now:      time.Now,
	}
}

func (s *PlayerProgressStore) Get(_ context.Context, playerID string) (*interfaces.PlayerProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[playerID]
	if !ok {
		return nil, interfaces.ErrPlayerProgressNotFound
	}
	p.OpponentRoster = cloneRoster(p.OpponentRoster)
	p.Statistics = p.Statistics.Clone()
	return &p, nil
}

func (s *PlayerProgressStore) Save(_ context.Context, progress *interfaces.PlayerProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *progress
	p.OpponentRoster = cloneRoster(p.OpponentRoster)
	p.Statistics = p.Statistics.Clone()
	p.UpdatedAt = s.now()
	s.progress[p.PlayerID] = p
	return nil
}

func cloneRoster(r *engine.GeneratedRoster) *engine.GeneratedRoster {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Combatants = make([]engine.Combatant, len(r.Combatants))
	for i, c := range r.Combatants {
		c.Types = slices.Clone(c.Types)
		c.Moves = slices.Clone(c.Moves)
		cp.Combatants[i] = c
	}
	cp.Fallbacks = slices.Clone(r.Fallbacks)
	return &cp
}

// BattleReportStore 内存战斗记录
type BattleReportStore struct {
	mu      sync.Mutex
	reports map[string]interfaces.BattleReport
}

var _ interfaces.BattleReportRepository = (*BattleReportStore)(nil)

func NewBattleReportStore() *BattleReportStore {
	return &BattleReportStore{reports: make(map[string]interfaces.BattleReport)}
}

// Create 同一 battle_id 覆盖写入
func (s *BattleReportStore) Create(_ context.Context, report *interfaces.BattleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.BattleID] = *report
	return nil
}

func (s *BattleReportStore) ListByPlayer(_ context.Context, playerID string, limit int) ([]*interfaces.BattleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*interfaces.BattleReport
	for _, r := range s.reports {
		if r.PlayerID == playerID {
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, func(a, b *interfaces.BattleReport) int {
		if c := b.FinishedAt.Compare(a.FinishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BattleID, b.BattleID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
