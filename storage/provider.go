package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 存储中不存在该文件
var ErrNotFound = errors.New("storage: file not found")

// Provider 存储提供者接口
// 所有路径均为相对上传根目录的 "/" 分隔路径，如 <dir>/<file_id>.jpg
type Provider interface {
	// SaveWithContext 保存文件，父目录不存在时自动创建
	SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error

	// GetWithContext 打开文件，调用方负责关闭
	GetWithContext(ctx context.Context, storagePath string) (io.ReadSeekCloser, error)

	// DeleteWithContext 删除文件，不存在时返回 ErrNotFound
	DeleteWithContext(ctx context.Context, storagePath string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, storagePath string) (bool, error)

	// EnsureDir 确保目录存在
	EnsureDir(ctx context.Context, dir string) error

	// RemoveAll 删除目录及其全部内容
	RemoveAll(ctx context.Context, dir string) error

	// List 列出目录下的文件名（不递归，不含子目录）
	List(ctx context.Context, dir string) ([]string, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// IsNotFound 判断是否为文件不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
