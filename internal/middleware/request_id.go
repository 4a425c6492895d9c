package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pikapi/internal/pkg/log"
)

// RequestIDHeader 网关透传的请求 ID
const RequestIDHeader = "X-Request-ID"

// RequestID 优先沿用请求头中的 ID，没有则生成新的 UUID，
// 写入 context（日志自动带上 request_id）并回写到响应头
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}

			ctx := log.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}
