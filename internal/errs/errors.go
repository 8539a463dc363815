// Package errs 定义图库核心的错误分类。
//
// 校验类错误不产生任何副作用；NotFound 用于不存在或不属于当前用户的资源；
// 存储与持久化错误表示服务端失败，调用方不得假设部分效果已生效。
package errs

import "errors"

var (
	// ErrInvalidFileType 扩展名不在白名单内
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrFileContentMismatch 文件内容与扩展名不符
	ErrFileContentMismatch = errors.New("file content does not match extension")
	// ErrFileTooLarge 文件超过大小限制
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidInput 标题、描述、分页等参数非法
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable 用户存储目录无法分配
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageWriteFailed 文件或缩略图写入失败
	ErrStorageWriteFailed = errors.New("storage write failed")
	// ErrPersistenceConflict 数据库提交失败
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// IsValidation 是否为校验类错误
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileContentMismatch) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound 是否为资源不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
