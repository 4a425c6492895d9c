package engine

import (
	"context"
	"errors"
	"fmt"
)

// MovepoolSize 每只宝可梦最多携带的招式数
const MovepoolSize = 4

// DefaultMoveIDs 没有任何可用招式时的兜底招式：Scratch、Tackle、Leer、Growl
var DefaultMoveIDs = []int{10, 33, 43, 45}

// MoveCatalog 招式分配需要的图鉴查询
type MoveCatalog interface {
	GetLegalMoveIDs(ctx context.Context, creatureID int) ([]int, error)
	GetMoveDefinition(ctx context.Context, moveID int) (*MoveDefinition, error)
}

// AssignMoves 为一只宝可梦分配本场战斗的招式
//
// 过滤掉无法解析的招式 ID；不超过 4 个时全部保留，否则不放回随机抽取 4 个；
// 一个可用招式都没有时返回 DefaultMoveIDs 并记录降级。
func AssignMoves(ctx context.Context, catalog MoveCatalog, creatureID int, src Source) ([]int, []Fallback, error) {
	legal, err := catalog.GetLegalMoveIDs(ctx, creatureID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("load legal moves for creature %d: %w", creatureID, err)
	}

	valid := make([]int, 0, len(legal))
	seen := make(map[int]struct{}, len(legal))
	for _, id := range legal {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		def, err := catalog.GetMoveDefinition(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound) || (err == nil && def == nil):
			continue
		case err != nil:
			return nil, nil, fmt.Errorf("load move %d: %w", id, err)
		}
		valid = append(valid, id)
	}

	if len(valid) == 0 {
		return append([]int(nil), DefaultMoveIDs...), []Fallback{{
			Kind:   FallbackDefaultMoves,
			Detail: fmt.Sprintf("creature %d has no resolvable moves (%d listed)", creatureID, len(legal)),
		}}, nil
	}

	return sampleInts(src, valid, MovepoolSize), nil, nil
}
