package validator

import (
	"regexp"

	"pikapi/internal/pkg/xerrors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.]{1,64}$`)

// CustomValidator wraps go-playground validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface
// 校验失败时返回 CodeInvalidParams，消息为第一个字段错误的中文描述
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		details := Translate(err)
		field, msg := "request", err.Error()
		if len(details) > 0 {
			field, msg = details[0].Field, details[0].Message
		}
		return xerrors.NewValidationError(field, msg)
	}
	return nil
}

// New creates a new custom validator instance
func New() echo.Validator {
	v := validator.New()

	// 注册自定义验证规则
	_ = v.RegisterValidation("player_id", validatePlayerID)

	return &CustomValidator{
		validator: v,
	}
}

// ValidatePlayerID 校验请求头中的玩家标识
func ValidatePlayerID(playerID string) error {
	if !playerIDPattern.MatchString(playerID) {
		return xerrors.NewValidationError("player_id", "玩家ID格式不正确")
	}
	return nil
}

// validatePlayerID 玩家ID：1-64 位字母、数字及 _-:.
func validatePlayerID(fl validator.FieldLevel) bool {
	return playerIDPattern.MatchString(fl.Field().String())
}
