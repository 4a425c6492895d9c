package engine

import "fmt"

const (
	// MaxRosterSize 队伍上限
	MaxRosterSize = 6
	// DefaultTeamMaxCost 玩家队伍的默认费用上限
	DefaultTeamMaxCost = 10
)

// TeamCost 玩家队伍费用
type TeamCost struct {
	Total     int `json:"total_cost"`
	Max       int `json:"max_cost"`
	Remaining int `json:"remaining_cost"`
}

// CheckTeamCost 统计已解析成员的费用，超过上限返回 ErrInvalidAction
func CheckTeamCost(members []Combatant, maxCost int) (TeamCost, error) {
	r := Roster{Members: members}
	cost := TeamCost{Total: r.TotalCost(), Max: maxCost}
	cost.Remaining = maxCost - cost.Total
	if cost.Remaining < 0 {
		return cost, fmt.Errorf("%w: team cost %d exceeds limit %d", ErrInvalidAction, cost.Total, maxCost)
	}
	return cost, nil
}

// Roster 一方的队伍
type Roster struct {
	Members     []Combatant `json:"members"`
	ActiveIndex int         `json:"active_index"`
}

// NewRoster 以第一只为首发
func NewRoster(members []Combatant) Roster {
	return Roster{Members: members}
}

// Active 当前在场的宝可梦，队伍为空时返回 nil
func (r *Roster) Active() *Combatant {
	if r.ActiveIndex < 0 || r.ActiveIndex >= len(r.Members) {
		return nil
	}
	return &r.Members[r.ActiveIndex]
}

// Survivors 存活数量
func (r *Roster) Survivors() int {
	n := 0
	for i := range r.Members {
		if !r.Members[i].Fainted() {
			n++
		}
	}
	return n
}

// Exhausted 全员倒下
func (r *Roster) Exhausted() bool {
	return r.Survivors() == 0
}

// NextLiving 在场位置之后按队伍顺序找下一只存活的宝可梦（循环查找）
func (r *Roster) NextLiving() (int, bool) {
	n := len(r.Members)
	for step := 1; step <= n; step++ {
		i := (r.ActiveIndex + step) % n
		if !r.Members[i].Fainted() {
			return i, true
		}
	}
	return 0, false
}

// TotalCost 队伍总费用
func (r *Roster) TotalCost() int {
	total := 0
	for i := range r.Members {
		total += r.Members[i].Cost
	}
	return total
}

func (r Roster) clone() Roster {
	members := make([]Combatant, len(r.Members))
	for i := range r.Members {
		members[i] = r.Members[i].clone()
	}
	r.Members = members
	return r
}

// ValidateSwitch 检查换人目标：越界、已倒下、已在场都会被拒绝
func ValidateSwitch(r *Roster, index int) error {
	if index < 0 || index >= len(r.Members) {
		return fmt.Errorf("%w: roster index %d out of range [0, %d)", ErrInvalidAction, index, len(r.Members))
	}
	if r.Members[index].Fainted() {
		return fmt.Errorf("%w: %s has fainted", ErrInvalidAction, r.Members[index].Name)
	}
	if index == r.ActiveIndex {
		return fmt.Errorf("%w: %s is already in battle", ErrInvalidAction, r.Members[index].Name)
	}
	return nil
}

// handleFaint 某一方在场宝可梦倒下后的状态迁移
//
//	opponent: 自动换上下一只存活成员，否则玩家获胜
//	player:   仍有存活成员时进入 AwaitingSwitch，否则玩家落败
func handleFaint(state *BattleState, side Side, out *Outcome) {
	roster := state.Roster(side)
	next, ok := roster.NextLiving()
	if !ok {
		if side == SideOpponent {
			finish(state, StatusPlayerWon, out)
		} else {
			finish(state, StatusPlayerLost, out)
		}
		return
	}

	if side == SideOpponent {
		roster.ActiveIndex = next
		out.emit(state, fmt.Sprintf("The opponent sent out %s!", roster.Members[next].Name))
		return
	}
	state.AwaitingSwitch = true
}

func finish(state *BattleState, status Status, out *Outcome) {
	state.Status = status
	state.AwaitingSwitch = false
	if status == StatusPlayerWon {
		out.emit(state, "You won the battle!")
	} else {
		out.emit(state, "You lost the battle...")
	}
}
