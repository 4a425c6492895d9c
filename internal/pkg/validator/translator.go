package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// 对战请求里出现的字段
var fieldLabels = map[string]string{
	"PlayerID":    "玩家ID",
	"CreatureIDs": "出战队伍",
	"MoveIndex":   "招式序号",
	"RosterIndex": "替换序号",
}

// Translate 把 validator 的错误转成中文描述，非校验错误原样作为 request 字段返回
func Translate(err error) []FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "request", Tag: "unknown", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   baseField(fe.Field()),
			Tag:     fe.Tag(),
			Message: describe(fe),
		})
	}
	return out
}

// dive 校验的字段名带下标：CreatureIDs[2]
func baseField(field string) string {
	if i := strings.IndexByte(field, '['); i > 0 {
		return field[:i]
	}
	return field
}

func describe(fe validator.FieldError) string {
	field := baseField(fe.Field())
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	if field != fe.Field() {
		// 队伍中的某一只
		label += fe.Field()[len(field):]
	}

	// 切片的长度限制按只数描述
	if field == "CreatureIDs" && (fe.Tag() == "min" || fe.Tag() == "max") {
		if fe.Tag() == "min" {
			return fmt.Sprintf("%s至少需要%s只宝可梦", label, fe.Param())
		}
		return fmt.Sprintf("%s最多%s只宝可梦", label, fe.Param())
	}

	switch fe.Tag() {
	case "required":
		return label + "不能为空"
	case "player_id":
		return label + "只能包含字母、数字和 _-:.，长度 1-64"
	case "gt":
		return fmt.Sprintf("%s必须大于%s", label, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s不能小于%s", label, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s不能大于%s", label, fe.Param())
	default:
		return fmt.Sprintf("%s校验失败: %s", label, fe.Tag())
	}
}
