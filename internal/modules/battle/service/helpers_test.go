package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/notify"
	"pikapi/internal/repository/interfaces"
	"pikapi/internal/repository/memory"
)

// steadySource 命中、不暴击、随机系数 0.925、平速时玩家先手、总是选第一个候选
type steadySource struct{}

func (steadySource) IntN(int) int     { return 0 }
func (steadySource) Float64() float64 { return 0.5 }

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []notify.BattleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event notify.BattleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	svc       *BattleService
	states    *memory.BattleStateStore
	progress  *memory.PlayerProgressStore
	reports   *memory.BattleReportStore
	catalog   *memory.Catalog
	publisher *recordingPublisher
	metrics   *metrics.BattleMetrics
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...func(*BattleServiceConfig)) *fixture {
	t.Helper()
	f := &fixture{
		states:    memory.NewBattleStateStore(),
		progress:  memory.NewPlayerProgressStore(),
		reports:   memory.NewBattleReportStore(),
		catalog:   memory.NewSeededCatalog(),
		publisher: &recordingPublisher{},
		metrics:   metrics.NewBattleMetricsWithRegistry("test", prometheus.NewRegistry()),
	}
	src := steadySource{}
	progression := NewProgressionService(f.progress, f.catalog, src, f.metrics, log.Discard())
	cfg := BattleServiceConfig{
		PlayerCombatantLevel: 50,
		Publisher:            f.publisher,
		Metrics:              f.metrics,
		Logger:               log.Discard(),
		Clock:                func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.svc = NewBattleService(f.states, f.reports, f.catalog, progression, engine.New(src), cfg)
	return f
}

// fighter 战斗中直接使用的宝可梦，只会撞击（33）
func fighter(name string, hp, atk, def, speed int) engine.Combatant {
	return engine.Combatant{
		CreatureID: 19,
		Name:       name,
		Level:      50,
		Types:      []engine.TypeID{1},
		Stats: engine.BattleStats{
			MaxHP: hp, CurrentHP: hp,
			Attack: atk, Defense: def,
			SpAttack: 10, SpDefense: 10,
			Speed: speed,
		},
		Moves: []int{33},
	}
}

// seedBattle 直接写入一场进行中的战斗和玩家进度
func (f *fixture) seedBattle(t *testing.T, playerID string, level int, player, opponent []engine.Combatant) *engine.BattleState {
	t.Helper()
	ctx := context.Background()

	progress := interfaces.NewPlayerProgress(playerID)
	progress.CurrentLevel = level
	progress.MaxLevelReached = level
	if err := f.progress.Save(ctx, progress); err != nil {
		t.Fatal(err)
	}

	state, _, err := engine.New(steadySource{}).NewBattle("battle-"+playerID, playerID, level, player, opponent, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.states.Save(ctx, playerID, state); err != nil {
		t.Fatal(err)
	}
	return state
}
