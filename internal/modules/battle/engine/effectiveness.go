package engine

// TypePair 攻击属性 → 防御属性
type TypePair struct {
	Attacking TypeID
	Defending TypeID
}

// TypeChart 属性克制表，缺失的组合视为 1.0
type TypeChart map[TypePair]float64

// Pair 单个组合的倍率
func (c TypeChart) Pair(attacking, defending TypeID) float64 {
	if m, ok := c[TypePair{Attacking: attacking, Defending: defending}]; ok {
		return m
	}
	return 1.0
}

// Multiplier 对单/双属性防御方的总倍率（逐项相乘，不做截断）
func (c TypeChart) Multiplier(attacking TypeID, defending []TypeID) float64 {
	total := 1.0
	for _, t := range defending {
		total *= c.Pair(attacking, t)
	}
	return total
}
