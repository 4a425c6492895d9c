package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pikapi/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Nil 键不存在
var Nil = redis.Nil

// Config Redis 配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Client Redis 客户端封装，命令按 store 标签记录指标
//
// ForStore 派生的客户端共享同一个连接池。
type Client struct {
	*redis.Client
	store   string
	metrics *metrics.ResourceMetrics
}

// NewClient 创建 Redis 客户端
func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	return Wrap(rdb), nil
}

// Wrap 包装已有的 go-redis 客户端（测试中配合 miniredis 使用）
func Wrap(rdb *redis.Client) *Client {
	return &Client{
		Client:  rdb,
		store:   metrics.StoreOther,
		metrics: metrics.DefaultResourceMetrics,
	}
}

// ForStore 返回记录到指定 store 标签的客户端
func (c *Client) ForStore(store string) *Client {
	cp := *c
	cp.store = store
	return &cp
}

// WithMetrics 替换指标实例，nil 表示不记录
func (c *Client) WithMetrics(m *metrics.ResourceMetrics) *Client {
	cp := *c
	cp.metrics = m
	return &cp
}

func (c *Client) record(command string, start time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case errors.Is(err, redis.Nil):
		result = metrics.ResultMiss
	case err != nil:
		result = metrics.ResultError
	}
	c.metrics.RecordRedisCommand(c.store, command, result, time.Since(start))
}

// SetWithTTL 设置键值对，带过期时间
func (c *Client) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	start := time.Now()
	err := c.Set(ctx, key, value, ttl).Err()
	c.record("SET", start, err)
	return err
}

// GetBytes 获取原始字节，键不存在时返回 Nil
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	result, err := c.Get(ctx, key).Bytes()
	c.record("GET", start, err)
	return result, err
}

// Exists 检查键是否存在
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	n, err := c.Client.Exists(ctx, key).Result()
	c.record("EXISTS", start, err)
	return n > 0, err
}

// DeleteKey 删除键
func (c *Client) DeleteKey(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.Del(ctx, keys...).Err()
	c.record("DEL", start, err)
	return err
}

// unlockScript 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试获取一个带过期时间的互斥锁，token 用于释放时校验持有者
func (c *Client) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.SetNX(ctx, key, token, ttl).Result()
	if err == nil && !ok {
		c.metrics.RecordRedisCommand(c.store, "SETNX", metrics.ResultBusy, time.Since(start))
		return false, nil
	}
	c.record("SETNX", start, err)
	return ok, err
}

// Unlock 释放 TryLock 获取的锁
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	start := time.Now()
	err := unlockScript.Run(ctx, c.Client, []string{key}, token).Err()
	c.record("EVAL", start, err)
	return err
}

// RecordPoolStats 上报连接池状态
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()
	c.metrics.RecordRedisPool(stats.TotalConns, stats.IdleConns, stats.StaleConns)
}
