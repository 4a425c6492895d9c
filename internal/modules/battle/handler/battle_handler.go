// Package handler 对战服务的 HTTP 适配层，只做参数校验、加锁和响应转换。
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"pikapi/internal/modules/battle/service"
	"pikapi/internal/pkg/response"
	"pikapi/internal/pkg/validator"
	"pikapi/internal/pkg/xerrors"
)

// PlayerIDHeader 调用方（网关）注入的玩家标识
const PlayerIDHeader = "X-Player-ID"

// BattleHandler 对战接口
type BattleHandler struct {
	battleService *service.BattleService
	locker        Locker
	respWriter    response.Writer
}

// NewBattleHandler 构造函数
func NewBattleHandler(svc *service.BattleService, locker Locker, respWriter response.Writer) *BattleHandler {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &BattleHandler{
		battleService: svc,
		locker:        locker,
		respWriter:    respWriter,
	}
}

// RegisterRoutes 挂载到 /api/v1/battle
func (h *BattleHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/start", h.StartBattle)
	g.POST("/move", h.UseMove)
	g.POST("/switch", h.SwitchCombatant)
	g.POST("/concede", h.Concede)
	g.GET("/state", h.GetBattle)
	g.GET("/opponents", h.GetOpponentPreview)
	g.GET("/progress", h.GetProgress)
	g.GET("/history", h.ListBattleHistory)
}

// StartBattleRequest 开战请求
type StartBattleRequest struct {
	CreatureIDs []int `json:"creature_ids" validate:"required,min=1,max=6,dive,gt=0"`
}

// UseMoveRequest 出招请求
type UseMoveRequest struct {
	MoveIndex *int `json:"move_index" validate:"required,gte=0,lte=3"`
}

// SwitchRequest 换人请求
type SwitchRequest struct {
	RosterIndex *int `json:"roster_index" validate:"required,gte=0,lte=5"`
}

// StartBattle POST /start
func (h *BattleHandler) StartBattle(c echo.Context) error {
	var req StartBattleRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return h.withPlayerLock(c, func(playerID string) error {
		result, err := h.battleService.StartBattle(c.Request().Context(), playerID, req.CreatureIDs)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		return response.EchoOK(c, h.respWriter, result)
	})
}

// UseMove POST /move
func (h *BattleHandler) UseMove(c echo.Context) error {
	var req UseMoveRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return h.withPlayerLock(c, func(playerID string) error {
		result, err := h.battleService.UseMove(c.Request().Context(), playerID, *req.MoveIndex)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		return response.EchoOK(c, h.respWriter, result)
	})
}

// SwitchCombatant POST /switch
func (h *BattleHandler) SwitchCombatant(c echo.Context) error {
	var req SwitchRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return h.withPlayerLock(c, func(playerID string) error {
		result, err := h.battleService.SwitchCombatant(c.Request().Context(), playerID, *req.RosterIndex)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		return response.EchoOK(c, h.respWriter, result)
	})
}

// Concede POST /concede
func (h *BattleHandler) Concede(c echo.Context) error {
	return h.withPlayerLock(c, func(playerID string) error {
		result, err := h.battleService.Concede(c.Request().Context(), playerID)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		return response.EchoOK(c, h.respWriter, result)
	})
}

// GetBattle GET /state
func (h *BattleHandler) GetBattle(c echo.Context) error {
	playerID, err := playerFromHeader(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	state, err := h.battleService.GetBattle(c.Request().Context(), playerID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, state)
}

// GetOpponentPreview GET /opponents
func (h *BattleHandler) GetOpponentPreview(c echo.Context) error {
	return h.withPlayerLock(c, func(playerID string) error {
		preview, err := h.battleService.GetOpponentPreview(c.Request().Context(), playerID)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		return response.EchoOK(c, h.respWriter, preview)
	})
}

// GetProgress GET /progress
func (h *BattleHandler) GetProgress(c echo.Context) error {
	playerID, err := playerFromHeader(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	progress, err := h.battleService.GetProgress(c.Request().Context(), playerID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, progress)
}

// ListBattleHistory GET /history?limit=N
func (h *BattleHandler) ListBattleHistory(c echo.Context) error {
	playerID, err := playerFromHeader(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 || n > 100 {
			return response.EchoBadRequest(c, h.respWriter, "limit 必须在 1-100 之间")
		}
		limit = n
	}

	reports, err := h.battleService.ListBattleHistory(c.Request().Context(), playerID, limit)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, reports)
}

func (h *BattleHandler) bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return xerrors.NewValidationError("request", "请求体格式错误")
	}
	return c.Validate(req)
}

// withPlayerLock 校验玩家标识并持有操作锁执行 fn；锁被占用时返回 409
func (h *BattleHandler) withPlayerLock(c echo.Context, fn func(playerID string) error) error {
	playerID, err := playerFromHeader(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	release, ok, err := h.locker.TryAcquire(c.Request().Context(), playerID)
	if err != nil {
		return response.EchoError(c, h.respWriter,
			xerrors.NewWithError(xerrors.CodeCacheError, "获取操作锁失败", err))
	}
	if !ok {
		return response.EchoError(c, h.respWriter,
			xerrors.FromCode(xerrors.CodeResourceLocked).WithPlayer(playerID))
	}
	defer release()

	return fn(playerID)
}

func playerFromHeader(c echo.Context) (string, error) {
	playerID := c.Request().Header.Get(PlayerIDHeader)
	if playerID == "" {
		return "", xerrors.NewValidationError("player_id", "缺少 "+PlayerIDHeader+" 请求头")
	}
	if err := validator.ValidatePlayerID(playerID); err != nil {
		return "", err
	}
	return playerID, nil
}
