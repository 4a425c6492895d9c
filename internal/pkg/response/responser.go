package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pikapi/internal/pkg/log"
	"pikapi/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// EmptyData 是一个用于在 API 成功响应中表示“无数据”的结构体。
type EmptyData struct{}

// ResponseResult 是一个通用的API响应结构体
type ResponseResult[T any] struct {
	Code      int    `json:"code"`            // 业务响应码
	Message   string `json:"message"`         // 响应消息
	Data      *T     `json:"data,omitempty"`  // 响应数据，成功时返回
	Error     string `json:"error,omitempty"` // 错误详情，失败时返回
	Timestamp int64  `json:"timestamp"`       // Unix时间戳
}

// Success 创建一个成功的响应
func Success[T any](data *T) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      int(xerrors.CodeSuccess),
		Message:   xerrors.CodeSuccess.Message(),
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Error 创建一个失败的响应
// 对于失败响应，泛型 T 的具体类型不重要，Data 字段将为 nil
func Error[T any](code int, message string, err string) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      code,
		Message:   message,
		Error:     err,
		Timestamp: time.Now().Unix(),
	}
}

// JSON 将响应以JSON格式写入 http.ResponseWriter
func JSON[T any](w http.ResponseWriter, statusCode int, resp *ResponseResult[T]) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// header 已经写入，只能记录日志
		log.Warn("写入JSON响应失败", log.Any("error", err))
	}
}

// Writer 统一的响应输出
type Writer interface {
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
}

// DefaultWriter 把 AppError 映射为 HTTP 状态码和业务码
type DefaultWriter struct {
	logger   log.Logger
	language language.Tag
}

// NewWriter 创建 DefaultWriter，lang 决定错误消息的语言
func NewWriter(logger log.Logger, lang language.Tag) *DefaultWriter {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &DefaultWriter{logger: logger, language: lang}
}

// WriteSuccess 输出成功响应
func (h *DefaultWriter) WriteSuccess(_ context.Context, w http.ResponseWriter, data any) error {
	JSON(w, http.StatusOK, Success(&data))
	return nil
}

// WriteError 输出错误响应，非 AppError 一律视为内部错误
func (h *DefaultWriter) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	appErr := xerrors.Wrap(err, xerrors.CodeInternalError, xerrors.CodeInternalError.Message())
	if appErr == nil {
		appErr = xerrors.FromCode(xerrors.CodeInternalError)
	}

	status := xerrors.GetHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.LogAppError(ctx, h.logger, "request failed", appErr)
	}

	detail := ""
	if appErr.Code == xerrors.CodeInvalidBattleAction || appErr.Code == xerrors.CodeInvalidParams {
		detail = appErr.Message
		if appErr.Context != nil {
			if msg, ok := appErr.Context.Metadata["validation_message"].(string); ok {
				detail = msg
			}
		}
	}

	JSON(w, status, Error[EmptyData](int(appErr.Code), appErr.GetLocalizedMessage(h.language), detail))
	return nil
}
