package storage

import (
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
)

// NewProvider 根据配置创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	var (
		provider Provider
		err      error
	)

	switch strings.ToLower(cfg.StorageType) {
	case "", "local":
		provider, err = NewLocalStorage(cfg.UploadRoot)
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.StorageMinioEndpoint,
			AccessKeyID:     cfg.StorageMinioAccessKey,
			SecretAccessKey: cfg.StorageMinioSecretKey,
			BucketName:      cfg.StorageMinioBucket,
			UseSSL:          cfg.StorageMinioUseSSL,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.StorageWebDAVURL,
			Username: cfg.StorageWebDAVUsername,
			Password: cfg.StorageWebDAVPassword,
			RootPath: cfg.UploadRoot,
			Timeout:  cfg.StorageWebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	logger.Info("Storage provider initialized", zap.String("name", provider.Name()))
	return provider, nil
}
