package engine

import (
	"context"
	"fmt"
	"slices"
	"testing"
)

// scriptedSource 按脚本返回随机数，脚本耗尽后 IntN 返回 0、Float64 返回 0.5
type scriptedSource struct {
	ints   []int
	floats []float64
}

func (s *scriptedSource) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return min(v, n-1)
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// strictSource 任何抽取都会让测试失败
type strictSource struct{ t *testing.T }

func (s strictSource) IntN(int) int {
	s.t.Helper()
	s.t.Fatal("unexpected IntN draw")
	return 0
}

func (s strictSource) Float64() float64 {
	s.t.Helper()
	s.t.Fatal("unexpected Float64 draw")
	return 0
}

const (
	typeNormal   TypeID = 1
	typeFighting TypeID = 2
	typeFire     TypeID = 10
	typeWater    TypeID = 11
	typeGrass    TypeID = 12
	typeGhost    TypeID = 8
)

// fakeCatalog 内存图鉴
type fakeCatalog struct {
	creatures map[int]CreatureInfo
	moves     map[int]MoveDefinition
	legal     map[int][]int
	err       error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		creatures: map[int]CreatureInfo{},
		moves:     map[int]MoveDefinition{},
		legal:     map[int][]int{},
	}
}

func (f *fakeCatalog) addCreature(id, cost int, moves ...int) {
	f.creatures[id] = CreatureInfo{
		ID:    id,
		Name:  fmt.Sprintf("creature-%d", id),
		Types: []TypeID{typeNormal},
		Base:  StatBlock{HP: 50, Attack: 50, Defense: 50, SpAttack: 50, SpDefense: 50, Speed: 50},
		Cost:  cost,
	}
	f.legal[id] = moves
}

func (f *fakeCatalog) addMove(def MoveDefinition) {
	f.moves[def.ID] = def
}

func (f *fakeCatalog) GetCreature(_ context.Context, id int) (*CreatureInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.creatures[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f *fakeCatalog) GetLegalMoveIDs(_ context.Context, id int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.legal[id], nil
}

func (f *fakeCatalog) GetMoveDefinition(_ context.Context, id int) (*MoveDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.moves[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (f *fakeCatalog) ListCreaturesByMaxCost(_ context.Context, maxCost int) ([]CreatureInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []CreatureInfo
	for _, id := range f.sortedIDs() {
		if c := f.creatures[id]; c.Cost <= maxCost {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListCreatureIDs(context.Context) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sortedIDs(), nil
}

func (f *fakeCatalog) sortedIDs() []int {
	ids := make([]int, 0, len(f.creatures))
	for id := range f.creatures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var (
	moveTackle = MoveDefinition{ID: 33, Name: "Tackle", Power: 40, Accuracy: 100, Type: typeNormal, Category: CategoryPhysical}
	moveKarate = MoveDefinition{ID: 2, Name: "Karate Chop", Power: 40, Accuracy: 100, Type: typeFighting, Category: CategoryPhysical}
	moveEmber  = MoveDefinition{ID: 52, Name: "Ember", Power: 40, Accuracy: 100, Type: typeFire, Category: CategorySpecial}
	moveGrowl  = MoveDefinition{ID: 45, Name: "Growl", Power: 0, Accuracy: 100, Type: typeNormal, Category: CategoryPhysical}
	moveQuick  = MoveDefinition{ID: 98, Name: "Quick Attack", Power: 40, Accuracy: 100, Type: typeNormal, Category: CategoryPhysical, Priority: 1}
)

func testRuleset(chart TypeChart, moves ...MoveDefinition) *Ruleset {
	r := &Ruleset{Moves: map[int]MoveDefinition{}, Chart: chart}
	for _, m := range moves {
		r.Moves[m.ID] = m
	}
	return r
}

// combatant 直接给定战斗能力值，便于手算伤害
func combatant(name string, hp, attack, defense, speed int, types []TypeID, moves ...int) Combatant {
	return Combatant{
		Name:  name,
		Level: 50,
		Types: types,
		Stats: BattleStats{
			MaxHP: hp, CurrentHP: hp,
			Attack: attack, Defense: defense,
			SpAttack: attack, SpDefense: defense,
			Speed: speed,
		},
		Moves: moves,
	}
}
