package utils

import (
	"context"
	"errors"
	"syscall"
)

// IsContextCanceled 请求上下文被取消，不含超时
func IsContextCanceled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsClientDisconnect 客户端中途断开：上下文取消或连接被对端关闭
func IsClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	return IsContextCanceled(err) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
