package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	// Pikachu 种族值
	base := StatBlock{HP: 35, Attack: 55, Defense: 40, SpAttack: 50, SpDefense: 50, Speed: 90}
	ivs := StatBlock{HP: 31, Attack: 31, Defense: 31, SpAttack: 31, SpDefense: 31, Speed: 31}

	got := ComputeStats(base, ivs, 50)

	assert.Equal(t, BattleStats{
		MaxHP: 110, CurrentHP: 110,
		Attack: 75, Defense: 60,
		SpAttack: 70, SpDefense: 70,
		Speed: 110,
	}, got)
}

func TestComputeStats_Floors(t *testing.T) {
	got := ComputeStats(StatBlock{}, StatBlock{}, 1)

	assert.Equal(t, 11, got.MaxHP, "HP 下限为 level+10")
	assert.Equal(t, 5, got.Attack)
	assert.Equal(t, 5, got.Speed)
}

func TestComputeStats_MonotonicInLevel(t *testing.T) {
	src := NewSource(7)
	for trial := 0; trial < 50; trial++ {
		base := StatBlock{
			HP: src.IntN(255) + 1, Attack: src.IntN(255) + 1, Defense: src.IntN(255) + 1,
			SpAttack: src.IntN(255) + 1, SpDefense: src.IntN(255) + 1, Speed: src.IntN(255) + 1,
		}
		ivs := RollIVs(src)

		prev := ComputeStats(base, ivs, MinLevel)
		for level := MinLevel + 1; level <= MaxLevel; level++ {
			cur := ComputeStats(base, ivs, level)
			assert.GreaterOrEqual(t, cur.MaxHP, prev.MaxHP)
			assert.GreaterOrEqual(t, cur.Attack, prev.Attack)
			assert.GreaterOrEqual(t, cur.Defense, prev.Defense)
			assert.GreaterOrEqual(t, cur.SpAttack, prev.SpAttack)
			assert.GreaterOrEqual(t, cur.SpDefense, prev.SpDefense)
			assert.GreaterOrEqual(t, cur.Speed, prev.Speed)
			prev = cur
		}
	}
}

func TestClampLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  int
	}{
		{"低于下限", -3, 1},
		{"正常", 42, 42},
		{"超过上限", 150, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLevel(tt.level))
		})
	}
}

func TestRollIVs_Range(t *testing.T) {
	src := NewSource(99)
	for i := 0; i < 200; i++ {
		ivs := RollIVs(src)
		for _, v := range []int{ivs.HP, ivs.Attack, ivs.Defense, ivs.SpAttack, ivs.SpDefense, ivs.Speed} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, MaxIV)
		}
	}
}

func TestGenerateStats_UsesInjectedSource(t *testing.T) {
	src := &scriptedSource{ints: []int{31, 0, 0, 0, 0, 31}}
	stats, ivs := GenerateStats(StatBlock{HP: 35, Speed: 90}, 50, src)

	assert.Equal(t, StatBlock{HP: 31, Speed: 31}, ivs)
	assert.Equal(t, 110, stats.MaxHP)
	assert.Equal(t, 110, stats.Speed)
	assert.Equal(t, stats.MaxHP, stats.CurrentHP)
}
