package utils

import (
	"strings"
	"unicode"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/utils/logger"
)

// SanitizeLogMessage 去除不可打印字符，防止日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\t' {
			sb.WriteRune(' ')
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogUsername 截断过长的用户名
func SanitizeLogUsername(username string) string {
	if len(username) > 50 {
		username = username[:50] + "..."
	}
	return SanitizeLogMessage(username)
}

// LogIfDev 仅在开发版本输出日志
func LogIfDev(msg string) {
	if config.IsDevelopment() {
		logger.Sugar().Info(msg)
	}
}

// LogIfDevf 仅在开发版本输出格式化日志
func LogIfDevf(format string, args ...interface{}) {
	if config.IsDevelopment() {
		logger.Sugar().Infof(format, args...)
	}
}
