package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName 图鉴名称统一为首字母大写，"mr-mime" → "Mr-Mime"
// Caser 有内部状态，不能跨 goroutine 共享
func DisplayName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "???"
	}
	return cases.Title(language.English).String(raw)
}
