package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"pikapi/internal/pkg/log"
)

// Logging 访问日志，按状态码区分级别
func Logging(logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			ctx := c.Request().Context()
			status := c.Response().Status
			args := []any{
				log.String("method", c.Request().Method),
				log.String("route", c.Path()),
				log.Int("status_code", status),
				log.Duration("duration", time.Since(start).Milliseconds()),
				log.Int64("response_size", c.Response().Size),
			}
			if playerID := c.Request().Header.Get("X-Player-ID"); playerID != "" {
				args = append(args, log.String("player_id", playerID))
			}

			switch {
			case err != nil:
				logger.ErrorContext(ctx, "请求处理出错", append(args, log.Any("error", err))...)
			case status >= 500:
				logger.ErrorContext(ctx, "请求完成（服务器错误）", args...)
			case status >= 400:
				logger.WarnContext(ctx, "请求完成（客户端错误）", args...)
			default:
				logger.InfoContext(ctx, "请求完成", args...)
			}
			return err
		}
	}
}
