package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

var _ Provider = (*WebDAVStorage)(nil)

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := path.Clean("/" + strings.Trim(cfg.RootPath, "/"))
	if rootPath == "/" {
		rootPath = ""
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := &WebDAVStorage{
		client:   client,
		rootPath: rootPath,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
	}

	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// run 在独立 goroutine 中执行阻塞的 WebDAV 调用，使其可被 ctx 取消
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{val: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-done:
		return res.val, res.err
	}
}

func mapNotFound(err error, storagePath string) error {
	if gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, storagePath)
	}
	return err
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsValidStoragePath(storagePath) {
		return fmt.Errorf("invalid storage path: %q", storagePath)
	}

	fullPath := s.fullPath(storagePath)
	_, err := run(ctx, func() (struct{}, error) {
		if err := s.client.MkdirAll(path.Dir(fullPath), 0755); err != nil {
			return struct{}{}, fmt.Errorf("failed to ensure parent directory: %w", err)
		}
		return struct{}{}, s.client.WriteStream(fullPath, file, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// GetWithContext 读取文件，内容整体加载到内存以支持 Seek
func (s *WebDAVStorage) GetWithContext(ctx context.Context, storagePath string) (io.ReadSeekCloser, error) {
	data, err := run(ctx, func() ([]byte, error) {
		return s.client.Read(s.fullPath(storagePath))
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, mapNotFound(err, storagePath))
	}
	return readSeekNopCloser{bytes.NewReader(data)}, nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, storagePath string) error {
	exists, err := s.Exists(ctx, storagePath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, storagePath)
	}

	_, err = run(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.Remove(s.fullPath(storagePath))
	})
	return err
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	return run(ctx, func() (bool, error) {
		_, err := s.client.Stat(s.fullPath(storagePath))
		if err == nil {
			return true, nil
		}
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	})
}

// EnsureDir 递归创建目录
func (s *WebDAVStorage) EnsureDir(ctx context.Context, dir string) error {
	if !IsValidStoragePath(dir) {
		return fmt.Errorf("invalid storage path: %q", dir)
	}
	_, err := run(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.MkdirAll(s.fullPath(dir), os.FileMode(0755))
	})
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// RemoveAll 删除目录树
func (s *WebDAVStorage) RemoveAll(ctx context.Context, dir string) error {
	if !IsValidStoragePath(dir) {
		return fmt.Errorf("invalid storage path: %q", dir)
	}
	_, err := run(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.RemoveAll(s.fullPath(dir))
	})
	return err
}

// List 列出目录下的文件名
func (s *WebDAVStorage) List(ctx context.Context, dir string) ([]string, error) {
	infos, err := run(ctx, func() ([]os.FileInfo, error) {
		return s.client.ReadDir(s.fullPath(dir))
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, mapNotFound(err, dir)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 测试中 client 可能为空
	if s.client == nil {
		return nil
	}

	root := s.rootPath
	if root == "" {
		root = "/"
	}
	_, err := run(ctx, func() ([]os.FileInfo, error) {
		return s.client.ReadDir(root)
	})
	return err
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
