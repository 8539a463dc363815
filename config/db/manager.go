package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/configs"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager 运行时配置管理器，配置以 JSON 保存在 system_configs 表中
type Manager struct {
	repo     configs.Repository
	defaults GallerySettings

	mu      sync.RWMutex
	gallery *GallerySettings
}

// NewManager 创建配置管理器
func NewManager(repo configs.Repository, cfg *config.Config) *Manager {
	return &Manager{
		repo:     repo,
		defaults: DefaultGallerySettings(cfg),
	}
}

// Defaults 返回静态配置得到的默认值
func (m *Manager) Defaults() GallerySettings {
	return cloneSettings(m.defaults)
}

// GetGallerySettings 获取图库配置，数据库中没有记录时返回默认值
func (m *Manager) GetGallerySettings(ctx context.Context) (GallerySettings, error) {
	m.mu.RLock()
	if m.gallery != nil {
		s := cloneSettings(*m.gallery)
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if m.gallery != nil {
		return cloneSettings(*m.gallery), nil
	}

	settings, err := m.load(ctx)
	if err != nil {
		return GallerySettings{}, err
	}

	m.gallery = &settings
	return cloneSettings(settings), nil
}

func (m *Manager) load(ctx context.Context) (GallerySettings, error) {
	settings := cloneSettings(m.defaults)

	record, err := m.repo.GetByKey(ctx, models.ConfigKeyGallery)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settings, nil
		}
		return GallerySettings{}, fmt.Errorf("failed to get gallery settings: %w", err)
	}

	if err := DecodeGallerySettings(record.ConfigJSON, &settings); err != nil {
		return GallerySettings{}, err
	}

	if err := settings.Validate(); err != nil {
		logger.Warn("Stored gallery settings are invalid, using defaults", zap.Error(err))
		return cloneSettings(m.defaults), nil
	}
	return settings, nil
}

// DecodeGallerySettings 把 JSON 覆盖到 settings 上，缺失的字段保持原值
func DecodeGallerySettings(raw string, settings *GallerySettings) error {
	var configMap map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &configMap); err != nil {
		return fmt.Errorf("failed to unmarshal gallery settings: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           settings,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(configMap); err != nil {
		return fmt.Errorf("failed to decode gallery settings: %w", err)
	}

	settings.Normalize()
	return nil
}

// SaveGallerySettings 校验并保存图库配置
func (m *Manager) SaveGallerySettings(ctx context.Context, settings GallerySettings) error {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal gallery settings: %w", err)
	}

	if err := m.repo.Upsert(ctx, &models.SystemConfig{
		Key:         models.ConfigKeyGallery,
		ConfigJSON:  string(data),
		Description: "Gallery runtime settings",
	}); err != nil {
		return fmt.Errorf("failed to save gallery settings: %w", err)
	}

	m.mu.Lock()
	m.gallery = &settings
	m.mu.Unlock()

	logger.Info("Gallery settings updated",
		zap.Int("page_size", settings.PageSize),
		zap.Int("max_page_size", settings.MaxPageSize),
		zap.Int("thumbnail_size", settings.ThumbnailSize),
		zap.Int("max_dimension", settings.MaxDimension),
		zap.Strings("allowed_extensions", settings.AllowedExtensions))
	return nil
}

// Invalidate 清除进程内缓存，下次读取时重新加载
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.gallery = nil
	m.mu.Unlock()
}

func cloneSettings(s GallerySettings) GallerySettings {
	s.AllowedExtensions = append([]string(nil), s.AllowedExtensions...)
	return s
}
