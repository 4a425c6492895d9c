package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/modules/battle/service"
	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/pkg/redis"
	"pikapi/internal/pkg/response"
	"pikapi/internal/pkg/validator"
	"pikapi/internal/pkg/xerrors"
	"pikapi/internal/repository/memory"
)

type steadySource struct{}

func (steadySource) IntN(int) int     { return 0 }
func (steadySource) Float64() float64 { return 0.5 }

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func newTestServer(t *testing.T, locker Locker) *echo.Echo {
	t.Helper()

	m := metrics.NewBattleMetricsWithRegistry("test", prometheus.NewRegistry())
	catalog := memory.NewSeededCatalog()
	src := steadySource{}
	progression := service.NewProgressionService(memory.NewPlayerProgressStore(), catalog, src, m, log.Discard())
	svc := service.NewBattleService(
		memory.NewBattleStateStore(),
		memory.NewBattleReportStore(),
		catalog,
		progression,
		engine.New(src),
		service.BattleServiceConfig{PlayerCombatantLevel: 50, Metrics: m, Logger: log.Discard()},
	)

	e := echo.New()
	e.Validator = validator.New()
	h := NewBattleHandler(svc, locker, response.NewWriter(log.Discard(), language.Chinese))
	h.RegisterRoutes(e.Group("/api/v1/battle"))
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path, playerID, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if playerID != "" {
		req.Header.Set(PlayerIDHeader, playerID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestBattleHandler_Flow(t *testing.T) {
	e := newTestServer(t, nil)

	status, env := doRequest(t, e, http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[25,4]}`)
	require.Equal(t, http.StatusOK, status, env.Error)

	var started service.ActionResult
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.NotNil(t, started.State)
	assert.NotEmpty(t, started.State.BattleID)
	assert.Len(t, started.State.Player.Members, 2)
	require.NotNil(t, started.TeamCost)
	assert.Equal(t, 7, started.TeamCost.Total)
	assert.Equal(t, 3, started.TeamCost.Remaining)

	status, env = doRequest(t, e, http.MethodGet, "/api/v1/battle/state", "ash", "")
	require.Equal(t, http.StatusOK, status)
	var state engine.BattleState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, started.State.BattleID, state.BattleID)

	status, env = doRequest(t, e, http.MethodPost, "/api/v1/battle/move", "ash", `{"move_index":0}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	var moved service.ActionResult
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.NotEmpty(t, moved.Events)

	status, env = doRequest(t, e, http.MethodPost, "/api/v1/battle/concede", "ash", "")
	require.Equal(t, http.StatusOK, status, env.Error)
	var conceded service.ActionResult
	require.NoError(t, json.Unmarshal(env.Data, &conceded))
	assert.True(t, conceded.BattleEnded)
	assert.Equal(t, "opponent", conceded.Winner)
	require.NotNil(t, conceded.Progress)
	assert.Equal(t, 25, conceded.Progress.Statistics.MostUsedCreatureID)
	assert.Equal(t, []int{4, 25}, conceded.Progress.Statistics.MostUsedTeam)

	status, env = doRequest(t, e, http.MethodGet, "/api/v1/battle/history?limit=5", "ash", "")
	require.Equal(t, http.StatusOK, status)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &reports))
	assert.Len(t, reports, 1)

	status, env = doRequest(t, e, http.MethodGet, "/api/v1/battle/state", "ash", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int(xerrors.CodeNoActiveBattle), env.Code)
}

func TestBattleHandler_Validation(t *testing.T) {
	e := newTestServer(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		playerID string
		body     string
		status   int
		code     xerrors.ErrorCode
	}{
		{"缺少玩家ID", http.MethodGet, "/api/v1/battle/state", "", "", http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"非法玩家ID", http.MethodGet, "/api/v1/battle/state", "ash ketchum", "", http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"空队伍", http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[]}`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"队伍超过6只", http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[1,4,7,10,13,16,19]}`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"队伍费用超过上限", http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[143,143,143,143,143,143]}`, http.StatusBadRequest, xerrors.CodeInvalidBattleAction},
		{"请求体不是JSON", http.MethodPost, "/api/v1/battle/start", "ash", `{`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"缺少招式序号", http.MethodPost, "/api/v1/battle/move", "ash", `{}`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"招式序号越界", http.MethodPost, "/api/v1/battle/move", "ash", `{"move_index":4}`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"换人序号越界", http.MethodPost, "/api/v1/battle/switch", "ash", `{"roster_index":6}`, http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"没有进行中的战斗", http.MethodPost, "/api/v1/battle/move", "ash", `{"move_index":0}`, http.StatusNotFound, xerrors.CodeNoActiveBattle},
		{"limit非法", http.MethodGet, "/api/v1/battle/history?limit=abc", "ash", "", http.StatusBadRequest, xerrors.CodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doRequest(t, e, tt.method, tt.path, tt.playerID, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, int(tt.code), env.Code)
		})
	}
}

func TestBattleHandler_OpponentPreviewAndProgress(t *testing.T) {
	e := newTestServer(t, nil)

	status, env := doRequest(t, e, http.MethodGet, "/api/v1/battle/opponents", "misty", "")
	require.Equal(t, http.StatusOK, status, env.Error)
	var preview service.OpponentPreview
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Equal(t, 1, preview.Level)
	require.NotNil(t, preview.Roster)
	assert.Len(t, preview.Roster.Combatants, preview.Scaling.RosterSize)

	status, env = doRequest(t, e, http.MethodGet, "/api/v1/battle/progress", "misty", "")
	require.Equal(t, http.StatusOK, status)
	var progress map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.EqualValues(t, 1, progress["current_level"])
}

func TestBattleHandler_LockedPlayer(t *testing.T) {
	locker := NewLocalLocker()
	e := newTestServer(t, locker)

	release, ok, err := locker.TryAcquire(context.Background(), "ash")
	require.NoError(t, err)
	require.True(t, ok)

	status, env := doRequest(t, e, http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[25]}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, int(xerrors.CodeResourceLocked), env.Code)

	// 其他玩家不受影响
	status, _ = doRequest(t, e, http.MethodPost, "/api/v1/battle/start", "misty", `{"creature_ids":[25]}`)
	assert.Equal(t, http.StatusOK, status)

	release()
	status, _ = doRequest(t, e, http.MethodPost, "/api/v1/battle/start", "ash", `{"creature_ids":[25]}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx, "ash")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryAcquire(ctx, "ash")
	assert.False(t, ok)

	release()
	release() // 重复释放无副作用

	_, ok, _ = l.TryAcquire(ctx, "ash")
	assert.True(t, ok)
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.NewResourceMetricsWithRegistry("test", prometheus.NewRegistry())
	l := NewRedisLocker(redis.Wrap(rdb).WithMetrics(m), 2*time.Second)
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx, "ash")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(ActionLockKeyPrefix+"ash"))

	_, ok, err = l.TryAcquire(ctx, "ash")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists(ActionLockKeyPrefix+"ash"))

	service := metrics.GetServiceName()
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.RedisCommands.WithLabelValues(service, metrics.StoreActionLock, "SETNX", metrics.ResultBusy)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.RedisCommands.WithLabelValues(service, metrics.StoreActionLock, "EVAL", metrics.ResultOK)))

	// 过期后自动释放
	_, ok, _ = l.TryAcquire(ctx, "ash")
	require.True(t, ok)
	mr.FastForward(3 * time.Second)
	_, ok, _ = l.TryAcquire(ctx, "ash")
	assert.True(t, ok)
}
