package app

import (
	"fmt"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/config"
	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/database"
	"github.com/anoixa/image-gallery/database/repo/configs"
	"github.com/anoixa/image-gallery/database/repo/contents"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/repo/users"
	"github.com/anoixa/image-gallery/database/repo/votes"
	"github.com/anoixa/image-gallery/internal/content"
	"github.com/anoixa/image-gallery/internal/image"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	cacheProvider   cache.Provider
	storageProvider storage.Provider
	configManager   *configSvc.Manager

	ImagesRepo   *images.Repository
	UsersRepo    *users.Repository
	ContentsRepo *contents.Repository
	VotesRepo    *votes.Repository
	ConfigsRepo  configs.Repository

	cacheHelper  *cache.Helper
	allocator    *content.Allocator
	aggregator   *vote.Aggregator
	ledger       *vote.Ledger
	imageService *image.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// NewContainerWith 使用已有的数据库、缓存与存储创建容器并初始化服务
func NewContainerWith(cfg *config.Config, db *gorm.DB, cacheProvider cache.Provider, storageProvider storage.Provider) (*Container, error) {
	c := &Container{
		config:          cfg,
		databaseFactory: database.NewFactoryWithProvider(database.NewGormProviderFromDB(db, "sqlite")),
		cacheProvider:   cacheProvider,
		storageProvider: storageProvider,
	}
	c.initRepositories()
	if err := c.InitServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init 初始化数据库与全部服务
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase 只初始化数据库与仓库，migrate 等命令使用
func (c *Container) InitDatabase() error {
	utils.LogIfDev("Initializing DI container...")

	if err := c.initDatabaseFactory(); err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}

	c.initRepositories()

	utils.LogIfDev("DI container initialized successfully")
	return nil
}

// InitServices 初始化缓存、存储与业务服务
func (c *Container) InitServices() error {
	if c.cacheProvider == nil {
		provider, err := cache.NewProvider(c.config)
		if err != nil {
			return fmt.Errorf("failed to initialize cache provider: %w", err)
		}
		c.cacheProvider = provider
	}

	if c.storageProvider == nil {
		provider, err := storage.NewProvider(c.config)
		if err != nil {
			return fmt.Errorf("failed to initialize storage provider: %w", err)
		}
		c.storageProvider = provider
	}

	c.cacheHelper = cache.NewHelper(c.cacheProvider, cache.HelperConfig{
		ImageCacheTTL:   c.config.CacheImageDuration(),
		MetricsCacheTTL: c.config.CacheMetricsDuration(),
	})

	cachedConfigs := configs.NewCachedRepository(c.ConfigsRepo, c.cacheProvider, configs.DefaultCacheTTL)
	c.configManager = configSvc.NewManager(cachedConfigs, c.config)

	db := c.databaseFactory.GetProvider().DB()
	c.allocator = content.NewAllocator(c.ContentsRepo, c.storageProvider)
	c.aggregator = vote.NewAggregator(c.ImagesRepo, c.VotesRepo, c.cacheHelper)
	c.ledger = vote.NewLedger(db, c.ImagesRepo, c.VotesRepo, c.cacheHelper)
	c.imageService = image.NewService(
		db,
		c.storageProvider,
		c.allocator,
		c.aggregator,
		c.configManager,
		c.cacheHelper,
		c.config.BaseURL(),
		c.config.UploadMaxBytes(),
	)

	logger.Info("Services initialized",
		zap.String("cache", c.cacheProvider.Name()),
		zap.String("storage", c.storageProvider.Name()))
	return nil
}

// initRepositories 初始化所有仓库
func (c *Container) initRepositories() {
	db := c.databaseFactory.GetProvider().DB()
	c.ImagesRepo = images.NewRepository(db)
	c.UsersRepo = users.NewRepository(db)
	c.ContentsRepo = contents.NewRepository(db)
	c.VotesRepo = votes.NewRepository(db)
	c.ConfigsRepo = configs.NewRepository(db)
	utils.LogIfDev("Repositories initialized")
}

// initDatabaseFactory 初始化数据库工厂
func (c *Container) initDatabaseFactory() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.databaseFactory = factory
	utils.LogIfDev("Database factory initialized")
	return nil
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetStorage 获取存储提供者
func (c *Container) GetStorage() storage.Provider {
	return c.storageProvider
}

// GetCache 获取缓存提供者
func (c *Container) GetCache() cache.Provider {
	return c.cacheProvider
}

// GetCacheHelper 获取缓存辅助工具
func (c *Container) GetCacheHelper() *cache.Helper {
	return c.cacheHelper
}

// GetConfigManager 获取运行时配置管理器
func (c *Container) GetConfigManager() *configSvc.Manager {
	return c.configManager
}

// GetImageService 获取图片服务
func (c *Container) GetImageService() *image.Service {
	return c.imageService
}

// GetLedger 获取投票账本
func (c *Container) GetLedger() *vote.Ledger {
	return c.ledger
}

// GetAggregator 获取投票统计
func (c *Container) GetAggregator() *vote.Aggregator {
	return c.aggregator
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	utils.LogIfDev("Closing DI container...")

	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			utils.LogIfDevf("Error closing cache provider: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			utils.LogIfDevf("Error closing database factory: %v", err)
		}
	}

	utils.LogIfDev("DI container closed")
	return nil
}
