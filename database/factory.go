package database

import (
	"context"
	"fmt"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/utils/logger"
)

// Factory 数据库工厂 - 负责创建和管理数据库提供者
type Factory struct {
	provider Provider
}

// NewFactory 创建新的数据库工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	logger.Sugar().Infof("Database provider '%s' initialized", provider.Name())
	return &Factory{provider: provider}, nil
}

// NewFactoryWithProvider 使用已有提供者创建工厂
func NewFactoryWithProvider(provider Provider) *Factory {
	return &Factory{provider: provider}
}

// GetProvider 获取数据库提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	if f.provider != nil {
		return f.provider.Close()
	}
	return nil
}

// AutoMigrate 自动迁移数据库结构
func (f *Factory) AutoMigrate() error {
	if f.provider == nil {
		return fmt.Errorf("database provider not initialized")
	}

	if err := models.SetupJoinTables(f.provider.DB()); err != nil {
		return fmt.Errorf("failed to setup join tables: %w", err)
	}

	logger.Info("Running database auto migration...")
	if err := f.provider.DB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	logger.Info("Database auto migration completed")
	return nil
}

// Ping 检查数据库连接
func (f *Factory) Ping(ctx context.Context) error {
	if f.provider == nil {
		return fmt.Errorf("database provider not initialized")
	}
	return f.provider.Ping(ctx)
}
