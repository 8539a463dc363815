package database

import (
	"context"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/utils"
	"gorm.io/gorm"
)

// Provider 数据库连接的最小接口，仓库层通过 DB() 取得 *gorm.DB
type Provider interface {
	DB() *gorm.DB
	WithContext(ctx context.Context) *gorm.DB
	Transaction(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close() error
	// Name 数据库类型，sqlite 或 postgres
	Name() string
}

// GormProvider 基于 GORM 的实现
type GormProvider struct {
	db     *gorm.DB
	dbType string
}

var _ Provider = (*GormProvider)(nil)

// NewGormProvider 按配置打开连接
func NewGormProvider(cfg *config.Config) (*GormProvider, error) {
	db, err := NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return &GormProvider{db: db, dbType: normalizeType(cfg.DBType)}, nil
}

// NewGormProviderFromDB 包装已有连接，测试使用
func NewGormProviderFromDB(db *gorm.DB, dbType string) *GormProvider {
	return &GormProvider{db: db, dbType: normalizeType(dbType)}
}

func (p *GormProvider) DB() *gorm.DB {
	return p.db
}

func (p *GormProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

// Transaction fn 返回错误时回滚
func (p *GormProvider) Transaction(ctx context.Context, fn TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

func (p *GormProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *GormProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	utils.LogIfDevf("Closing %s connection...", p.dbType)
	return sqlDB.Close()
}

func (p *GormProvider) Name() string {
	return p.dbType
}

// normalizeType 统一数据库类型名称
func normalizeType(dbType string) string {
	switch dbType {
	case "", "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql":
		return "postgres"
	default:
		return dbType
	}
}
