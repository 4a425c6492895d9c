package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/response"
	"pikapi/internal/pkg/xerrors"
)

// ErrorHandler 替换 echo 默认的错误处理器，统一输出 ResponseResult 格式
// （未匹配路由、方法不允许、绑定失败等 echo 内部错误）
func ErrorHandler(respWriter response.Writer, logger log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		var appErr *xerrors.AppError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &httpErr):
			appErr = convertEchoError(httpErr)
		default:
			logger.ErrorContext(ctx, "未处理的错误",
				log.Any("original_error", err),
				log.String("error_type", fmt.Sprintf("%T", err)),
			)
			appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err)
		}

		if writeErr := respWriter.WriteError(ctx, c.Response(), appErr); writeErr != nil {
			logger.Error("写入错误响应失败", writeErr)
		}
	}
}

// convertEchoError 将 echo 错误转换为业务错误
func convertEchoError(httpErr *echo.HTTPError) *xerrors.AppError {
	message := fmt.Sprintf("%v", httpErr.Message)
	switch httpErr.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return xerrors.NewValidationError("request", message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return xerrors.FromCode(xerrors.CodeResourceNotFound).WithMetadata("echo_message", message)
	case http.StatusConflict:
		return xerrors.FromCode(xerrors.CodeResourceLocked).WithMetadata("echo_message", message)
	case http.StatusTooManyRequests:
		return xerrors.FromCode(xerrors.CodeRateLimitExceeded).WithMetadata("echo_message", message)
	default:
		return xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_code", httpErr.Code).
			WithMetadata("echo_message", message)
	}
}
