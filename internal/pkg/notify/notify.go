package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

// Default subjects
const (
	SubjectBattleFinished = "battle.finished"
	SubjectBattleStarted  = "battle.started"
)

// BattleEvent 战斗生命周期事件
type BattleEvent struct {
	BattleID   string    `json:"battle_id"`
	PlayerID   string    `json:"player_id"`
	Level      int       `json:"level"`
	Result     string    `json:"result,omitempty"`
	Turns      int       `json:"turns"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublishBattleEvent 发布战斗事件，没有连接时静默降级
func PublishBattleEvent(ctx context.Context, subject string, event BattleEvent) error {
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	if conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal battle event failed: %w", err)
	}
	return conn.Publish(subject, data)
}

// Publisher 以接口形式暴露给 service 层，便于测试替换
type Publisher struct{}

// Publish 实现 service.EventPublisher
func (Publisher) Publish(ctx context.Context, subject string, event BattleEvent) error {
	return PublishBattleEvent(ctx, subject, event)
}
