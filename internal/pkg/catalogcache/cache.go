package catalogcache

import (
	"context"
	"sync"
	"time"

	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache 线程安全的 TTL 缓存，用于复用图鉴只读数据（宝可梦、招式、属性克制）。
// 与会话缓存不同，命中不会刷新 TTL：图鉴更新后最迟一个 TTL 内可见。
type Cache[K comparable, V any] struct {
	name    string
	ttl     time.Duration
	metrics *metrics.CacheMetrics
	logger  log.Logger
	clock   func() time.Time
	mu      sync.RWMutex
	store   map[K]*entry[V]
}

// New 返回 Cache 实例。
func New[K comparable, V any](name string, ttl time.Duration, m *metrics.CacheMetrics, logger log.Logger) *Cache[K, V] {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if m == nil {
		m = metrics.DefaultCacheMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Cache[K, V]{
		name:    name,
		ttl:     ttl,
		metrics: m,
		logger:  logger.With("component", "catalog_cache", "cache", name),
		clock:   time.Now,
		store:   make(map[K]*entry[V]),
	}
}

// WithClock 替换时钟（测试用）。
func (c *Cache[K, V]) WithClock(clock func() time.Time) *Cache[K, V] {
	c.clock = clock
	return c
}

// Get 返回缓存值，过期条目会被剔除。
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	c.mu.RLock()
	value, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		c.metrics.IncCacheMiss(c.name)
		return zero, false
	}

	if c.clock().After(value.expiresAt) {
		c.mu.Lock()
		// 重新检查，避免删掉并发写入的新值
		if current, exists := c.store[key]; exists && current == value {
			delete(c.store, key)
		}
		size := len(c.store)
		c.mu.Unlock()

		c.metrics.IncCacheEvicted(c.name, "expired")
		c.metrics.SetSize(c.name, size)
		c.logger.DebugContext(ctx, "catalog cache expired", log.Any("key", key))
		return zero, false
	}

	c.metrics.IncCacheHit(c.name)
	return value.value, true
}

// Set 写入或覆盖缓存值。
func (c *Cache[K, V]) Set(_ context.Context, key K, value V) {
	c.mu.Lock()
	c.store[key] = &entry[V]{
		value:     value,
		expiresAt: c.clock().Add(c.ttl),
	}
	size := len(c.store)
	c.mu.Unlock()
	c.metrics.SetSize(c.name, size)
}

// GetOrLoad 未命中时调用 load 并缓存结果；load 出错时不缓存。
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(ctx, key, v)
	return v, nil
}

// Delete 主动剔除缓存。
func (c *Cache[K, V]) Delete(ctx context.Context, key K, reason string) {
	c.mu.Lock()
	_, ok := c.store[key]
	if ok {
		delete(c.store, key)
	}
	size := len(c.store)
	c.mu.Unlock()

	if ok {
		c.metrics.IncCacheEvicted(c.name, reason)
		c.metrics.SetSize(c.name, size)
		c.logger.InfoContext(ctx, "catalog cache evicted",
			log.String("reason", reason),
			log.Any("key", key))
	}
}

// PurgeExpired 清理所有过期条目，返回清理数量。
func (c *Cache[K, V]) PurgeExpired(ctx context.Context) int {
	now := c.clock()

	c.mu.Lock()
	removed := 0
	for k, v := range c.store {
		if now.After(v.expiresAt) {
			delete(c.store, k)
			removed++
		}
	}
	size := len(c.store)
	c.mu.Unlock()

	for i := 0; i < removed; i++ {
		c.metrics.IncCacheEvicted(c.name, "expired")
	}
	c.metrics.SetSize(c.name, size)
	if removed > 0 {
		c.logger.DebugContext(ctx, "catalog cache purged", log.Int("removed", removed))
	}
	return removed
}

// Clear 清空缓存。
func (c *Cache[K, V]) Clear(ctx context.Context) {
	c.mu.Lock()
	n := len(c.store)
	c.store = make(map[K]*entry[V])
	c.mu.Unlock()

	c.metrics.SetSize(c.name, 0)
	c.logger.InfoContext(ctx, "catalog cache cleared", log.Int("entries", n))
}

// Len 当前条目数（包含尚未清理的过期条目）。
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
