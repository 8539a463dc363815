// Package types 缓存实现共享的错误定义，避免 cache 与其子包循环引用
package types

import "errors"

// ErrCacheMiss 键不存在或已过期
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss 判断是否为缓存未命中，支持被 %w 包装的错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
