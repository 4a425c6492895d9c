// Package battle 组装对战服务：存储、缓存、引擎、HTTP 路由和定时任务。
package battle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"golang.org/x/text/language"

	custommiddleware "pikapi/internal/middleware"
	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/modules/battle/handler"
	"pikapi/internal/modules/battle/service"
	"pikapi/internal/modules/battle/tasks"
	"pikapi/internal/pkg/config"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/notify"
	redisClient "pikapi/internal/pkg/redis"
	"pikapi/internal/pkg/response"
	"pikapi/internal/pkg/validator"
	"pikapi/internal/repository/cached"
	"pikapi/internal/repository/impl"
	"pikapi/internal/repository/interfaces"
	"pikapi/internal/repository/memory"
)

// ServiceName 指标和日志中使用的服务名
const ServiceName = "battle"

// Module 对战服务
type Module struct {
	cfg    *config.Battle
	logger log.Logger

	db    *sql.DB
	redis *redisClient.Client
	nc    *nats.Conn

	catalog    *cached.Catalog
	states     interfaces.BattleStateRepository
	progress   interfaces.PlayerProgressRepository
	reports    interfaces.BattleReportRepository
	locker     handler.Locker
	respWriter response.Writer

	battleService *service.BattleService
	battleHandler *handler.BattleHandler
	cacheTask     *tasks.CatalogCacheTask
	httpServer    *echo.Echo
}

// NewModule 创建模块，Init 之前不会建立任何连接
func NewModule(cfg *config.Battle, logger log.Logger) *Module {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Module{cfg: cfg, logger: logger}
}

// Init 按依赖顺序初始化。未配置数据库 / Redis 时退回内存实现（仅用于开发和测试）
func (m *Module) Init(ctx context.Context) error {
	metrics.SetServiceName(ServiceName)

	// 1. 存储
	if err := m.initDatabase(ctx); err != nil {
		return err
	}
	if err := m.initRedis(); err != nil {
		return err
	}
	m.initRepositories()

	// 2. 事件通知（可选）
	m.initNats()

	// 3. 服务和 handler
	m.respWriter = response.NewWriter(m.logger, language.Chinese)
	m.initServicesAndHandlers()

	// 4. HTTP
	m.initHTTPServer()
	m.setupRoutes()

	// 5. 定时任务
	m.cacheTask = tasks.NewCatalogCacheTask(m.catalog, m.db, m.redisPool(), m.cfg.CatalogSweepSchedule, m.logger)
	return m.cacheTask.Start()
}

func (m *Module) initDatabase(ctx context.Context) error {
	if !m.cfg.UsePostgres() {
		m.logger.Warn("[Battle Module] 未配置 PIKAPI_DATABASE_URL，图鉴和玩家进度使用内存实现")
		return nil
	}

	db, err := sql.Open("postgres", m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.db = db
	m.logger.Info("[Battle Module] Database initialized successfully")
	return nil
}

func (m *Module) initRedis() error {
	if !m.cfg.UseRedis() {
		m.logger.Warn("[Battle Module] 未配置 REDIS_HOST，战斗状态和操作锁只在本进程内有效")
		return nil
	}

	client, err := redisClient.NewClient(redisClient.Config{
		Host:     m.cfg.RedisHost,
		Port:     m.cfg.RedisPort,
		Password: m.cfg.RedisPassword,
		DB:       m.cfg.RedisDB,
	})
	if err != nil {
		return err
	}

	m.redis = client
	m.logger.Info("[Battle Module] Redis initialized successfully",
		"addr", fmt.Sprintf("%s:%d", m.cfg.RedisHost, m.cfg.RedisPort))
	return nil
}

func (m *Module) initRepositories() {
	var catalog interfaces.CatalogRepository
	if m.db != nil {
		catalog = impl.NewCatalogRepository(m.db)
		m.progress = impl.NewPlayerProgressRepository(m.db)
		m.reports = impl.NewBattleReportRepository(m.db)
	} else {
		catalog = memory.NewSeededCatalog()
		m.progress = memory.NewPlayerProgressStore()
		m.reports = memory.NewBattleReportStore()
	}
	m.catalog = cached.NewCatalog(catalog, m.cfg.CatalogCacheTTL, metrics.DefaultCacheMetrics, m.logger)

	if m.redis != nil {
		m.states = impl.NewBattleStateRepository(m.redis, m.cfg.BattleStateTTL)
		m.locker = handler.NewRedisLocker(m.redis, m.cfg.ActionLockTTL)
	} else {
		m.states = memory.NewBattleStateStore()
		m.locker = handler.NewLocalLocker()
	}
}

func (m *Module) initNats() {
	if m.cfg.NatsAddress == "" {
		m.logger.Info("[Battle Module] 未配置 NATS_ADDRESS，战斗事件不对外发布")
		return
	}

	nc, err := nats.Connect("nats://"+m.cfg.NatsAddress,
		nats.Name("pikapi-"+ServiceName),
		nats.MaxReconnects(10),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		// 事件是旁路通知，连接失败不影响对战
		m.logger.Error("[Battle Module] Failed to connect to NATS", err, "addr", m.cfg.NatsAddress)
		return
	}
	m.nc = nc
	notify.SetNatsConn(nc)
	m.logger.Info("[Battle Module] Connected to NATS successfully", "addr", m.cfg.NatsAddress)
}

func (m *Module) initServicesAndHandlers() {
	var src engine.Source
	if m.cfg.HasRNGSeed {
		src = engine.NewSource(m.cfg.RNGSeed)
		m.logger.Warn("[Battle Module] 使用固定随机种子，仅用于回放和调试", "seed", m.cfg.RNGSeed)
	} else {
		src = engine.NewRandomSource()
	}

	battleMetrics := metrics.DefaultBattleMetrics
	progression := service.NewProgressionService(m.progress, m.catalog, src, battleMetrics, m.logger)
	m.battleService = service.NewBattleService(
		m.states, m.reports, m.catalog, progression, engine.New(src),
		service.BattleServiceConfig{
			PlayerCombatantLevel: m.cfg.PlayerCombatantLevel,
			PlayerTeamMaxCost:    m.cfg.PlayerTeamMaxCost,
			Publisher:            notify.Publisher{},
			Metrics:              battleMetrics,
			Logger:               m.logger,
		},
	)
	m.battleHandler = handler.NewBattleHandler(m.battleService, m.locker, m.respWriter)
}

func (m *Module) initHTTPServer() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = custommiddleware.ErrorHandler(m.respWriter, m.logger)

	// 顺序：RequestID 最先，日志依赖它；Recovery 在最内层，panic 仍会被记录和计数
	e.Use(custommiddleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(custommiddleware.Logging(m.logger))
	e.Use(custommiddleware.Recovery(m.respWriter, m.logger))
	e.Use(echomiddleware.BodyLimit("64K"))

	m.httpServer = e
}

func (m *Module) setupRoutes() {
	m.httpServer.GET("/healthz", m.healthz)
	m.httpServer.GET("/metrics", metrics.EchoHandler())

	v1 := m.httpServer.Group("/api/v1")
	m.battleHandler.RegisterRoutes(v1.Group("/battle"))
}

// healthz 数据库和 Redis 可达即健康
func (m *Module) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "memory", "redis": "memory"}
	healthy := true
	if m.db != nil {
		status["database"] = "ok"
		if err := m.db.PingContext(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		}
	}
	if m.redis != nil {
		status["redis"] = "ok"
		if err := m.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}

	// NATS 断开只影响事件通知，不计入健康状态
	if m.nc != nil {
		status["nats"] = m.nc.Status().String()
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

// redisPool 避免把 nil *Client 包进接口
func (m *Module) redisPool() tasks.PoolReporter {
	if m.redis == nil {
		return nil
	}
	return m.redis
}

// Handler 返回 HTTP 处理器（测试中直接驱动）
func (m *Module) Handler() http.Handler {
	return m.httpServer
}

// Start 阻塞直到 HTTP 服务关闭
func (m *Module) Start() error {
	m.logger.Info("[Battle Module] Starting HTTP server", "addr", m.cfg.HTTPAddr)
	if err := m.httpServer.Start(m.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭：先停止接收请求，再停定时任务，最后关闭连接
func (m *Module) Shutdown(ctx context.Context) error {
	var errs []error

	if m.httpServer != nil {
		if err := m.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if m.cacheTask != nil {
		m.cacheTask.Stop()
	}
	if m.nc != nil {
		notify.SetNatsConn(nil)
		if err := m.nc.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	m.logger.Info("[Battle Module] Destroyed")
	return errors.Join(errs...)
}
