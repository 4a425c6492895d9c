package engine

const (
	MinLevel = 1
	MaxLevel = 100
	// MaxIV 个体值上限（含）
	MaxIV = 31
)

// ClampLevel 限制在 [1, 100]
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

// RollIVs 为六项能力各抽取一个 [0, 31] 的个体值
func RollIVs(src Source) StatBlock {
	return StatBlock{
		HP:        src.IntN(MaxIV + 1),
		Attack:    src.IntN(MaxIV + 1),
		Defense:   src.IntN(MaxIV + 1),
		SpAttack:  src.IntN(MaxIV + 1),
		SpDefense: src.IntN(MaxIV + 1),
		Speed:     src.IntN(MaxIV + 1),
	}
}

// ComputeStats 按等级计算实际能力值，努力值固定为 0
//
//	HP    = floor((2*base + iv) * level / 100) + level + 10
//	other = floor((2*base + iv) * level / 100) + 5
func ComputeStats(base, ivs StatBlock, level int) BattleStats {
	level = ClampLevel(level)
	other := func(b, iv int) int {
		return (2*b+iv)*level/100 + 5
	}
	hp := (2*base.HP+ivs.HP)*level/100 + level + 10
	return BattleStats{
		MaxHP:     hp,
		CurrentHP: hp,
		Attack:    other(base.Attack, ivs.Attack),
		Defense:   other(base.Defense, ivs.Defense),
		SpAttack:  other(base.SpAttack, ivs.SpAttack),
		SpDefense: other(base.SpDefense, ivs.SpDefense),
		Speed:     other(base.Speed, ivs.Speed),
	}
}

// GenerateStats 抽取个体值并计算能力值
func GenerateStats(base StatBlock, level int, src Source) (BattleStats, StatBlock) {
	ivs := RollIVs(src)
	return ComputeStats(base, ivs, level), ivs
}
