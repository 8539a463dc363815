package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/image-gallery/api/core"
	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	cfg := loadConfig()

	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	InitDatabase(container)

	if err := container.InitServices(); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// 启动gin
	server, cleanup := core.StartServer(cfg, container)
	go func() {
		logger.Info("Server started", zap.String("addr", cfg.Addr()), zap.String("base_url", cfg.BaseURL()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if cleanup != nil {
		cleanup()
	}

	// 关闭 DI 容器
	if err := container.Close(); err != nil {
		logger.Error("Error closing container", zap.Error(err))
	}

	logger.Info("Server exited successfully")
	logger.Sync()
}

// loadConfig 读取配置并初始化日志
func loadConfig() *config.Config {
	config.InitConfig()
	cfg := config.Get()

	if err := logger.Initialize(cfg.LogLevel, config.IsDevelopment()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg
}

// InitDatabase 自动迁移数据库结构
func InitDatabase(container *app.Container) {
	factory := container.GetDatabaseFactory()
	logger.Info("Initializing database", zap.String("type", factory.GetProvider().Name()))

	// 自动DDL
	if err := factory.AutoMigrate(); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	logger.Info("Database initialized successfully")
}
