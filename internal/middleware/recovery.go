package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/response"
	"pikapi/internal/pkg/xerrors"
)

// Recovery 捕获 handler 中的 panic，返回 500
func Recovery(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := c.Request().Context()
					logger.ErrorContext(ctx, "应用程序 panic",
						log.Any("panic_value", r),
						log.String("path", c.Request().URL.Path),
						log.String("method", c.Request().Method),
					)

					appErr := xerrors.FromCode(xerrors.CodeInternalError).
						WithOperation("recovery").
						WithMetadata("panic_value", fmt.Sprintf("%v", r))
					err = respWriter.WriteError(ctx, c.Response(), appErr)
				}
			}()

			return next(c)
		}
	}
}
