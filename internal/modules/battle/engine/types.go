// Package engine 对战模拟核心：属性计算、招式分配、伤害结算、回合排序、队伍状态机与对手生成。
// 包内不做任何 I/O，所有随机数来自注入的 Source。
package engine

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrNotFound 图鉴中不存在的宝可梦/招式
	ErrNotFound = errors.New("not found")
	// ErrInvalidAction 被拒绝的战斗操作，状态保持不变
	ErrInvalidAction = errors.New("invalid battle action")
	// ErrEmptyRoster 无法组建任何队伍成员
	ErrEmptyRoster = errors.New("roster has no resolvable creatures")
)

// TypeID 属性 ID
type TypeID int

// MoveCategory 招式分类
type MoveCategory string

const (
	CategoryPhysical MoveCategory = "physical"
	CategorySpecial  MoveCategory = "special"
)

// MoveDefinition 招式定义（只读）
type MoveDefinition struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Power    int          `json:"power"`    // 0 表示变化类招式
	Accuracy int          `json:"accuracy"` // 0 表示必中
	Type     TypeID       `json:"type"`
	Category MoveCategory `json:"category"`
	Priority int          `json:"priority"`
}

// StatBlock 六项能力值（种族值或个体值）
type StatBlock struct {
	HP        int `json:"hp"`
	Attack    int `json:"attack"`
	Defense   int `json:"defense"`
	SpAttack  int `json:"sp_attack"`
	SpDefense int `json:"sp_defense"`
	Speed     int `json:"speed"`
}

// BattleStats 战斗中的实际能力值
type BattleStats struct {
	MaxHP     int `json:"max_hp"`
	CurrentHP int `json:"current_hp"`
	Attack    int `json:"attack"`
	Defense   int `json:"defense"`
	SpAttack  int `json:"sp_attack"`
	SpDefense int `json:"sp_defense"`
	Speed     int `json:"speed"`
}

// CreatureInfo 图鉴中的宝可梦
type CreatureInfo struct {
	ID    int       `json:"id"`
	Name  string    `json:"name"`
	Types []TypeID  `json:"types"`
	Base  StatBlock `json:"base"`
	Cost  int       `json:"cost"`
}

// Combatant 参战的宝可梦实例
type Combatant struct {
	CreatureID int         `json:"creature_id"`
	Name       string      `json:"name"`
	Level      int         `json:"level"`
	Types      []TypeID    `json:"types"`
	Base       StatBlock   `json:"base"`
	IVs        StatBlock   `json:"ivs"`
	Stats      BattleStats `json:"stats"`
	Moves      []int       `json:"moves"`
	Cost       int         `json:"cost"`
}

// Fainted 当前 HP 归零即视为倒下
func (c *Combatant) Fainted() bool {
	return c.Stats.CurrentHP <= 0
}

// HasType 是否拥有指定属性
func (c *Combatant) HasType(t TypeID) bool {
	return slices.Contains(c.Types, t)
}

func (c *Combatant) applyDamage(damage int) {
	c.Stats.CurrentHP = max(0, c.Stats.CurrentHP-damage)
}

func (c Combatant) clone() Combatant {
	c.Types = slices.Clone(c.Types)
	c.Moves = slices.Clone(c.Moves)
	return c
}

// Status 战斗状态
type Status string

const (
	StatusOngoing    Status = "ongoing"
	StatusPlayerWon  Status = "player_won"
	StatusPlayerLost Status = "player_lost"
)

// Finished 是否已结束
func (s Status) Finished() bool {
	return s == StatusPlayerWon || s == StatusPlayerLost
}

// Winner "player" / "opponent"，未结束时为空
func (s Status) Winner() string {
	switch s {
	case StatusPlayerWon:
		return "player"
	case StatusPlayerLost:
		return "opponent"
	default:
		return ""
	}
}

// BattleState 一场进行中的战斗
type BattleState struct {
	BattleID    string   `json:"battle_id"`
	PlayerID    string   `json:"player_id"`
	Player      Roster   `json:"player"`
	Opponent    Roster   `json:"opponent"`
	Turn        int      `json:"turn"`
	Log         []string `json:"log"`
	PlayerLevel int      `json:"player_level"`
	Status      Status   `json:"status"`
	// AwaitingSwitch 玩家在场宝可梦倒下且仍有存活成员，必须先换人
	AwaitingSwitch bool      `json:"awaiting_switch"`
	StartedAt      time.Time `json:"started_at"`
}

// Clone 深拷贝，调用方可在副本上试算
func (s *BattleState) Clone() *BattleState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Player = s.Player.clone()
	cp.Opponent = s.Opponent.clone()
	cp.Log = slices.Clone(s.Log)
	return &cp
}

// Roster 返回指定一方的队伍
func (s *BattleState) Roster(side Side) *Roster {
	if side == SidePlayer {
		return &s.Player
	}
	return &s.Opponent
}

// Side 对战双方
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "opponent"
}

// Other 对手一方
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// FallbackKind 图鉴数据不一致时走的降级路径
type FallbackKind string

const (
	FallbackDefaultMoves    FallbackKind = "default_moves"
	FallbackInvalidMove     FallbackKind = "invalid_move"
	FallbackUnknownCreature FallbackKind = "unknown_creature"
	FallbackOpponentPool    FallbackKind = "opponent_pool"
	FallbackOpponentTopUp   FallbackKind = "opponent_topup"
)

// Fallback 一次降级记录，与战斗日志分开上报
type Fallback struct {
	Kind   FallbackKind `json:"kind"`
	Detail string       `json:"detail"`
}
