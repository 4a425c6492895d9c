package tasks

import (
	"context"
	"database/sql"

	"github.com/robfig/cron/v3"

	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
)

// DefaultSweepSchedule 每 10 分钟整点执行（秒 分 时 日 月 周）
const DefaultSweepSchedule = "0 */10 * * * *"

// CachePurger 图鉴缓存，按 TTL 清理过期条目
type CachePurger interface {
	PurgeExpired(ctx context.Context) int
}

// PoolReporter 上报连接池状态（Redis）
type PoolReporter interface {
	RecordPoolStats()
}

// CatalogCacheTask 定时清理图鉴缓存，并顺带上报连接池指标
type CatalogCacheTask struct {
	cache    CachePurger
	db       *sql.DB
	redis    PoolReporter
	schedule string
	logger   log.Logger
	metrics  *metrics.ResourceMetrics
	cron     *cron.Cron
}

// NewCatalogCacheTask db / redis 可以为 nil（内存模式）
func NewCatalogCacheTask(cache CachePurger, db *sql.DB, redis PoolReporter, schedule string, logger log.Logger) *CatalogCacheTask {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &CatalogCacheTask{
		cache:    cache,
		db:       db,
		redis:    redis,
		schedule: schedule,
		logger:   logger,
		metrics:  metrics.DefaultResourceMetrics,
	}
}

// Start 启动定时任务；表达式无效时返回错误
func (t *CatalogCacheTask) Start() error {
	t.cron = cron.New(cron.WithSeconds())

	_, err := t.cron.AddFunc(t.schedule, func() {
		t.RunOnce(context.Background())
	})
	if err != nil {
		t.logger.Error("【定时任务】添加图鉴缓存清理任务失败", err, "schedule", t.schedule)
		return err
	}

	t.cron.Start()
	t.logger.Info("【定时任务】图鉴缓存清理已启动", "schedule", t.schedule)
	return nil
}

// RunOnce 执行一次清理和指标上报
func (t *CatalogCacheTask) RunOnce(ctx context.Context) {
	purged := t.cache.PurgeExpired(ctx)
	if purged > 0 {
		t.logger.Info("【定时任务】图鉴缓存过期条目已清理", "purged", purged)
	} else {
		t.logger.Debug("【定时任务】没有过期的图鉴缓存")
	}

	if t.db != nil {
		t.metrics.RecordDBPool(t.db.Stats())
	}
	if t.redis != nil {
		t.redis.RecordPoolStats()
	}
}

// Stop 停止定时任务，等待正在执行的任务结束
func (t *CatalogCacheTask) Stop() {
	if t.cron != nil {
		t.logger.Info("【定时任务】正在停止图鉴缓存清理...")
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【定时任务】图鉴缓存清理已停止")
	}
}
