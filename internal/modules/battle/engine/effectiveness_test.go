package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeChart_Multiplier(t *testing.T) {
	chart := TypeChart{
		{Attacking: typeFire, Defending: typeGrass}:   2,
		{Attacking: typeFire, Defending: typeWater}:   0.5,
		{Attacking: typeNormal, Defending: typeGhost}: 0,
	}

	tests := []struct {
		name     string
		attack   TypeID
		defender []TypeID
		want     float64
	}{
		{"单属性克制", typeFire, []TypeID{typeGrass}, 2},
		{"单属性抵抗", typeFire, []TypeID{typeWater}, 0.5},
		{"缺失组合视为 1", typeFire, []TypeID{typeNormal}, 1},
		{"双属性相乘", typeFire, []TypeID{typeGrass, typeWater}, 1},
		{"免疫", typeNormal, []TypeID{typeGhost, typeNormal}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chart.Multiplier(tt.attack, tt.defender))
		})
	}
}

func TestTypeChart_MultiplierDomain(t *testing.T) {
	pairValues := []float64{0, 0.5, 1, 2}
	single := []float64{0, 0.5, 1, 2}
	dual := []float64{0, 0.25, 0.5, 1, 2, 4}

	for _, a := range pairValues {
		chart := TypeChart{{Attacking: typeFire, Defending: typeGrass}: a}
		assert.Contains(t, single, chart.Multiplier(typeFire, []TypeID{typeGrass}))

		for _, b := range pairValues {
			chart[TypePair{Attacking: typeFire, Defending: typeWater}] = b
			assert.Contains(t, dual, chart.Multiplier(typeFire, []TypeID{typeGrass, typeWater}))
		}
	}
}
