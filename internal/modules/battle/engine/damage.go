package engine

import (
	"fmt"
	"math"
)

const (
	// DefaultLevel 未记录等级时的攻击方等级
	DefaultLevel = 50
	// CritChance 暴击概率（百分比）
	CritChance      = 6.25
	CritMultiplier  = 2.0
	STABMultiplier  = 1.5
	MinRandomFactor = 0.85
)

// AttackResult 一次攻击的结算结果
type AttackResult struct {
	Damage        int     `json:"damage"`
	Critical      bool    `json:"critical"`
	Hit           bool    `json:"hit"`
	Effectiveness float64 `json:"effectiveness"`
	// Valid 为 false 表示招式无法解析，调用方应视为请求错误
	Valid bool   `json:"valid"`
	Text  string `json:"text"`
}

// invalidMoveResult 无法解析的招式
var invalidMoveResult = AttackResult{Effectiveness: 1.0, Text: "invalid move"}

// CalculateDamage 结算一次攻击
//
// 依次进行：命中判定 → 物理/特殊分流 → 属性克制 → 本系加成 → 暴击 → 随机浮动 → 基础伤害。
// 威力为 0 的招式不造成伤害，也不消耗暴击和浮动的随机数。
func CalculateDamage(attacker, defender *Combatant, move *MoveDefinition, chart TypeChart, src Source) AttackResult {
	if move == nil || attacker == nil || defender == nil {
		return invalidMoveResult
	}

	if move.Accuracy > 0 {
		roll := src.IntN(100) + 1
		if roll > move.Accuracy {
			return AttackResult{
				Effectiveness: 1.0,
				Valid:         true,
				Text:          fmt.Sprintf("%s missed (roll %d > accuracy %d)", move.Name, roll, move.Accuracy),
			}
		}
	}

	attack, defense := attacker.Stats.Attack, defender.Stats.Defense
	if move.Category == CategorySpecial {
		attack, defense = attacker.Stats.SpAttack, defender.Stats.SpDefense
	}
	defense = max(defense, 1)

	effectiveness := chart.Multiplier(move.Type, defender.Types)

	stab := 1.0
	if attacker.HasType(move.Type) {
		stab = STABMultiplier
	}

	result := AttackResult{Hit: true, Valid: true, Effectiveness: effectiveness}
	if move.Power <= 0 {
		result.Text = fmt.Sprintf("%s has no power (effectiveness x%.2f)", move.Name, effectiveness)
		return result
	}

	crit := 1.0
	if src.Float64()*100 <= CritChance {
		crit = CritMultiplier
		result.Critical = true
	}

	random := MinRandomFactor + src.Float64()*(1-MinRandomFactor)

	level := attacker.Level
	if level <= 0 {
		level = DefaultLevel
	}

	base := math.Floor(((2*float64(level)/5+2)*float64(move.Power)*float64(attack)/float64(defense))/50 + 2)
	result.Damage = int(math.Floor(base * effectiveness * stab * crit * random))
	result.Text = fmt.Sprintf("base %.0f x effectiveness %.2f x stab %.1f x crit %.0f x random %.3f = %d",
		base, effectiveness, stab, crit, random, result.Damage)
	return result
}
