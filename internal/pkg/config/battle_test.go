package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBattleConfig_Defaults(t *testing.T) {
	t.Setenv("PIKAPI_DATABASE_URL", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("PIKAPI_RNG_SEED", "")

	cfg, err := LoadBattleConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 24*time.Hour, cfg.BattleStateTTL)
	assert.Equal(t, 50, cfg.PlayerCombatantLevel)
	assert.Equal(t, 10, cfg.PlayerTeamMaxCost)
	assert.False(t, cfg.UsePostgres())
	assert.False(t, cfg.UseRedis())
	assert.False(t, cfg.HasRNGSeed)
}

func TestLoadBattleConfig_Overrides(t *testing.T) {
	t.Setenv("PIKAPI_BATTLE_STATE_TTL", "30m")
	t.Setenv("PIKAPI_RNG_SEED", "42")
	t.Setenv("PIKAPI_PLAYER_COMBATANT_LEVEL", "70")
	t.Setenv("PIKAPI_PLAYER_TEAM_MAX_COST", "15")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := LoadBattleConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.BattleStateTTL)
	assert.True(t, cfg.HasRNGSeed)
	assert.Equal(t, uint64(42), cfg.RNGSeed)
	assert.Equal(t, 70, cfg.PlayerCombatantLevel)
	assert.Equal(t, 15, cfg.PlayerTeamMaxCost)
	assert.True(t, cfg.UseRedis())
}

func TestLoadBattleConfig_RejectsBadLevel(t *testing.T) {
	t.Setenv("PIKAPI_PLAYER_COMBATANT_LEVEL", "101")

	_, err := LoadBattleConfig()
	assert.Error(t, err)
}

func TestLoadBattleConfig_RejectsBadTeamCost(t *testing.T) {
	t.Setenv("PIKAPI_PLAYER_TEAM_MAX_COST", "0")

	_, err := LoadBattleConfig()
	assert.Error(t, err)
}

func TestSanitizeConfigForLog(t *testing.T) {
	got := SanitizeConfigForLog(map[string]any{
		"redis_password": "hunter2",
		"database_url":   "postgres://u:p@db/pikapi",
		"http_addr":      ":8080",
	})

	assert.Equal(t, "***REDACTED***", got["redis_password"])
	assert.Equal(t, "***REDACTED***", got["database_url"])
	assert.Equal(t, ":8080", got["http_addr"])
}
