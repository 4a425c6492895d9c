package engine

import (
	"fmt"
	"time"
)

// Ruleset 回合开始前准备好的图鉴快照，回合内不再访问任何存储
type Ruleset struct {
	Moves map[int]MoveDefinition
	Chart TypeChart
}

// Move 查找招式，不存在返回 nil
func (r *Ruleset) Move(id int) *MoveDefinition {
	if r == nil {
		return nil
	}
	def, ok := r.Moves[id]
	if !ok {
		return nil
	}
	return &def
}

// MoveIDs 一场战斗中双方所有招式 ID，用于构建 Ruleset
func MoveIDs(state *BattleState) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, roster := range []*Roster{&state.Player, &state.Opponent} {
		for i := range roster.Members {
			for _, id := range roster.Members[i].Moves {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// AttackRecord 本次调用中发生的一次攻击
type AttackRecord struct {
	Side   Side         `json:"side"`
	Actor  string       `json:"actor"`
	Target string       `json:"target"`
	Move   string       `json:"move"`
	Result AttackResult `json:"result"`
}

// Outcome 一次操作产生的增量结果
type Outcome struct {
	// Events 本次追加到战斗日志的文本
	Events    []string
	Attacks   []AttackRecord
	Fallbacks []Fallback
}

// emit 追加到战斗日志，同时记录为本次增量
func (o *Outcome) emit(state *BattleState, line string) {
	state.Log = append(state.Log, line)
	o.Events = append(o.Events, line)
}

// Engine 对战引擎本身无状态，只持有随机源
type Engine struct {
	src Source
}

// New 创建引擎
func New(src Source) *Engine {
	if src == nil {
		src = NewRandomSource()
	}
	return &Engine{src: src}
}

// Source 引擎使用的随机源
func (e *Engine) Source() Source {
	return e.src
}

// NewBattle 以双方队伍创建战斗，回合数从 1 开始
func (e *Engine) NewBattle(battleID, playerID string, playerLevel int, player, opponent []Combatant, now time.Time) (*BattleState, *Outcome, error) {
	if len(player) == 0 || len(opponent) == 0 {
		return nil, nil, ErrEmptyRoster
	}
	state := &BattleState{
		BattleID:    battleID,
		PlayerID:    playerID,
		Player:      NewRoster(player),
		Opponent:    NewRoster(opponent),
		Turn:        1,
		PlayerLevel: playerLevel,
		Status:      StatusOngoing,
		StartedAt:   now,
	}
	out := &Outcome{}
	out.emit(state, fmt.Sprintf("Go! %s!", state.Player.Active().Name))
	out.emit(state, fmt.Sprintf("The opponent sent out %s!", state.Opponent.Active().Name))
	return state, out, nil
}

func checkActionable(state *BattleState) error {
	if state == nil {
		return fmt.Errorf("%w: no battle state", ErrInvalidAction)
	}
	if state.Status.Finished() {
		return fmt.Errorf("%w: battle already finished (%s)", ErrInvalidAction, state.Status)
	}
	return nil
}

// UseMove 玩家使用在场宝可梦的第 slot 个招式，结算一整个回合
//
// 校验全部在修改状态之前完成，返回错误时 state 不变。
func (e *Engine) UseMove(state *BattleState, rules *Ruleset, slot int) (*Outcome, error) {
	if err := checkActionable(state); err != nil {
		return nil, err
	}
	if state.AwaitingSwitch {
		return nil, fmt.Errorf("%w: choose a replacement before using a move", ErrInvalidAction)
	}

	player := state.Player.Active()
	opponent := state.Opponent.Active()
	if slot < 0 || slot >= len(player.Moves) {
		return nil, fmt.Errorf("%w: move slot %d out of range [0, %d)", ErrInvalidAction, slot, len(player.Moves))
	}
	playerMove := rules.Move(player.Moves[slot])
	if playerMove == nil {
		return nil, fmt.Errorf("%w: invalid move %d", ErrInvalidAction, player.Moves[slot])
	}

	out := &Outcome{}
	opponentMove := e.pickOpponentMove(opponent, rules, out)

	actions := []Action{{Side: SidePlayer, Actor: player, Move: playerMove}}
	if opponentMove != nil {
		first, second := OrderActions(
			Action{Side: SidePlayer, Actor: player, Move: playerMove},
			Action{Side: SideOpponent, Actor: opponent, Move: opponentMove},
			e.src,
		)
		actions = []Action{first, second}
	}

	for _, act := range actions {
		if e.executeAttack(state, act, rules, out) {
			handleFaint(state, act.Side.Other(), out)
			break
		}
	}

	state.Turn++
	return out, nil
}

// Switch 玩家换人
//
// 在场宝可梦倒下后的强制换人不给对手出手机会，也不计回合；
// 主动换人时对手会对新上场的宝可梦攻击一次，并消耗本回合。
func (e *Engine) Switch(state *BattleState, rules *Ruleset, index int) (*Outcome, error) {
	if err := checkActionable(state); err != nil {
		return nil, err
	}
	if err := ValidateSwitch(&state.Player, index); err != nil {
		return nil, err
	}

	out := &Outcome{}
	forced := state.AwaitingSwitch
	state.Player.ActiveIndex = index
	state.AwaitingSwitch = false
	out.emit(state, fmt.Sprintf("Go! %s!", state.Player.Active().Name))

	if forced {
		return out, nil
	}

	opponent := state.Opponent.Active()
	if move := e.pickOpponentMove(opponent, rules, out); move != nil {
		act := Action{Side: SideOpponent, Actor: opponent, Move: move}
		if e.executeAttack(state, act, rules, out) {
			handleFaint(state, SidePlayer, out)
		}
	}
	state.Turn++
	return out, nil
}

// Concede 认输，视为玩家落败
func (e *Engine) Concede(state *BattleState) (*Outcome, error) {
	if err := checkActionable(state); err != nil {
		return nil, err
	}
	out := &Outcome{}
	out.emit(state, "You forfeited the battle.")
	finish(state, StatusPlayerLost, out)
	return out, nil
}

// pickOpponentMove 对手从自己的招式中均匀随机选择；选中的招式无法解析时放弃本次行动
func (e *Engine) pickOpponentMove(opponent *Combatant, rules *Ruleset, out *Outcome) *MoveDefinition {
	if len(opponent.Moves) == 0 {
		out.Fallbacks = append(out.Fallbacks, Fallback{
			Kind:   FallbackInvalidMove,
			Detail: fmt.Sprintf("%s has no moves", opponent.Name),
		})
		return nil
	}
	id := opponent.Moves[e.src.IntN(len(opponent.Moves))]
	move := rules.Move(id)
	if move == nil {
		out.Fallbacks = append(out.Fallbacks, Fallback{
			Kind:   FallbackInvalidMove,
			Detail: fmt.Sprintf("%s picked unresolvable move %d and lost its action", opponent.Name, id),
		})
	}
	return move
}

// executeAttack 结算一次攻击并写日志，返回防守方是否倒下
func (e *Engine) executeAttack(state *BattleState, act Action, rules *Ruleset, out *Outcome) bool {
	defender := state.Roster(act.Side.Other()).Active()
	result := CalculateDamage(act.Actor, defender, act.Move, rules.Chart, e.src)
	moveName := DisplayName(act.Move.Name)
	out.Attacks = append(out.Attacks, AttackRecord{
		Side:   act.Side,
		Actor:  act.Actor.Name,
		Target: defender.Name,
		Move:   moveName,
		Result: result,
	})

	out.emit(state, fmt.Sprintf("%s used %s!", act.Actor.Name, moveName))
	switch {
	case !result.Hit:
		out.emit(state, fmt.Sprintf("%s's attack missed!", act.Actor.Name))
		return false
	case result.Effectiveness == 0 && act.Move.Power > 0:
		out.emit(state, fmt.Sprintf("It doesn't affect %s...", defender.Name))
		return false
	case act.Move.Power <= 0:
		return false
	}

	if result.Critical {
		out.emit(state, "A critical hit!")
	}
	switch {
	case result.Effectiveness > 1:
		out.emit(state, "It's super effective!")
	case result.Effectiveness < 1:
		out.emit(state, "It's not very effective...")
	}
	defender.applyDamage(result.Damage)
	out.emit(state, fmt.Sprintf("It dealt %d damage.", result.Damage))

	if defender.Fainted() {
		out.emit(state, fmt.Sprintf("%s fainted!", defender.Name))
		return true
	}
	return false
}
