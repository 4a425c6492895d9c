package config

import (
	"fmt"
	"time"
)

// Battle 对战服务的运行配置，全部来自环境变量
type Battle struct {
	Environment string
	LogLevel    string
	HTTPAddr    string

	DatabaseURL string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	NatsAddress string

	BattleStateTTL       time.Duration
	CatalogCacheTTL      time.Duration
	CatalogSweepSchedule string
	ActionLockTTL        time.Duration

	PlayerCombatantLevel int
	PlayerTeamMaxCost    int
	RNGSeed              uint64
	HasRNGSeed           bool
}

// LoadBattleConfig 读取对战服务配置
func LoadBattleConfig() (*Battle, error) {
	cfg := &Battle{
		Environment:          GetEnvOrDefault("PIKAPI_ENVIRONMENT", "development"),
		LogLevel:             GetEnvOrDefault("PIKAPI_LOG_LEVEL", "info"),
		HTTPAddr:             GetEnvOrDefault("PIKAPI_HTTP_ADDR", ":8080"),
		DatabaseURL:          GetEnvOrDefault("PIKAPI_DATABASE_URL", ""),
		RedisHost:            GetEnvOrDefault("REDIS_HOST", ""),
		RedisPort:            GetEnvInt("REDIS_PORT", 6379),
		RedisPassword:        GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:              GetEnvInt("REDIS_DB", 0),
		NatsAddress:          GetEnvOrDefault("NATS_ADDRESS", ""),
		BattleStateTTL:       GetEnvDuration("PIKAPI_BATTLE_STATE_TTL", 24*time.Hour),
		CatalogCacheTTL:      GetEnvDuration("PIKAPI_CATALOG_CACHE_TTL", 2*time.Hour),
		CatalogSweepSchedule: GetEnvOrDefault("PIKAPI_CATALOG_SWEEP_SCHEDULE", "0 */10 * * * *"),
		ActionLockTTL:        GetEnvDuration("PIKAPI_ACTION_LOCK_TTL", 5*time.Second),
		PlayerCombatantLevel: GetEnvInt("PIKAPI_PLAYER_COMBATANT_LEVEL", 50),
		PlayerTeamMaxCost:    GetEnvInt("PIKAPI_PLAYER_TEAM_MAX_COST", 10),
	}

	if seed := GetEnvOrDefault("PIKAPI_RNG_SEED", ""); seed != "" {
		var parsed uint64
		if _, err := fmt.Sscanf(seed, "%d", &parsed); err != nil {
			return nil, fmt.Errorf("PIKAPI_RNG_SEED 不是有效的整数: %w", err)
		}
		cfg.RNGSeed = parsed
		cfg.HasRNGSeed = true
	}

	if cfg.PlayerCombatantLevel < 1 || cfg.PlayerCombatantLevel > 100 {
		return nil, fmt.Errorf("PIKAPI_PLAYER_COMBATANT_LEVEL 超出范围 [1,100]: %d", cfg.PlayerCombatantLevel)
	}

	if cfg.PlayerTeamMaxCost < 1 {
		return nil, fmt.Errorf("PIKAPI_PLAYER_TEAM_MAX_COST 必须为正数: %d", cfg.PlayerTeamMaxCost)
	}

	return cfg, nil
}

// UseRedis 是否配置了 Redis
func (c *Battle) UseRedis() bool {
	return c.RedisHost != ""
}

// UsePostgres 是否配置了数据库
func (c *Battle) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// LogFields 返回可安全输出到日志的配置
func (c *Battle) LogFields() map[string]any {
	return SanitizeConfigForLog(map[string]any{
		"environment":            c.Environment,
		"http_addr":              c.HTTPAddr,
		"database_url":           c.DatabaseURL,
		"redis_host":             c.RedisHost,
		"redis_port":             c.RedisPort,
		"redis_password":         c.RedisPassword,
		"nats_address":           c.NatsAddress,
		"battle_state_ttl":       c.BattleStateTTL.String(),
		"catalog_cache_ttl":      c.CatalogCacheTTL.String(),
		"player_combatant_level": c.PlayerCombatantLevel,
		"player_team_max_cost":   c.PlayerTeamMaxCost,
		"rng_seeded":             c.HasRNGSeed,
	})
}
