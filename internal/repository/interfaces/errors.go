package interfaces

import (
	"fmt"

	"pikapi/internal/modules/battle/engine"
)

var (
	// ErrPlayerProgressNotFound 玩家进度不存在（首次访问）
	ErrPlayerProgressNotFound = fmt.Errorf("player progress: %w", engine.ErrNotFound)
	// ErrCreatureNotFound 图鉴中没有该宝可梦
	ErrCreatureNotFound = fmt.Errorf("creature: %w", engine.ErrNotFound)
	// ErrMoveNotFound 图鉴中没有该招式
	ErrMoveNotFound = fmt.Errorf("move: %w", engine.ErrNotFound)
)
