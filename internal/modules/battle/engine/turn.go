package engine

// Action 一方本回合的行动
type Action struct {
	Side  Side
	Actor *Combatant
	Move  *MoveDefinition
}

// OrderActions 决定先后手：优先度高者先；相同则速度高者先；再相同则随机。
// 只有完全平手时才消耗一次随机数。
func OrderActions(player, opponent Action, src Source) (first, second Action) {
	switch {
	case player.Move.Priority > opponent.Move.Priority:
		return player, opponent
	case player.Move.Priority < opponent.Move.Priority:
		return opponent, player
	case player.Actor.Stats.Speed > opponent.Actor.Stats.Speed:
		return player, opponent
	case player.Actor.Stats.Speed < opponent.Actor.Stats.Speed:
		return opponent, player
	case src.IntN(2) == 0:
		return player, opponent
	default:
		return opponent, player
	}
}
