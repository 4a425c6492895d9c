package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/redis"
)

// ActionLockKeyPrefix 玩家操作锁的 Redis key 前缀
const ActionLockKeyPrefix = "pikapi:battle:lock:"

// Locker 同一玩家同一时刻只允许一个战斗操作
type Locker interface {
	// TryAcquire 获取失败时 ok=false，不阻塞
	TryAcquire(ctx context.Context, playerID string) (release func(), ok bool, err error)
}

// RedisLocker 基于 SETNX 的分布式锁，ttl 防止进程崩溃后锁无法释放
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker 创建 Redis 锁
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client.ForStore(metrics.StoreActionLock), ttl: ttl}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, playerID string) (func(), bool, error) {
	key := ActionLockKeyPrefix + playerID
	token := uuid.NewString()

	ok, err := l.client.TryLock(ctx, key, token, l.ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		// 请求 ctx 可能已取消，释放锁使用独立的 ctx
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.client.Unlock(releaseCtx, key, token)
	}, true, nil
}

// LocalLocker 单进程内的锁，未配置 Redis 时使用
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryAcquire(_ context.Context, playerID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[playerID]; busy {
		return nil, false, nil
	}
	l.held[playerID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, playerID)
			l.mu.Unlock()
		})
	}, true, nil
}
