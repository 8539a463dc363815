package config

import (
	"context"
	"testing"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemConfig{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func TestDefaultGallerySettings(t *testing.T) {
	s := DefaultGallerySettings(nil)
	assert.Equal(t, 20, s.PageSize)
	assert.Equal(t, 100, s.MaxPageSize)
	assert.Equal(t, 240, s.ThumbnailSize)
	assert.Equal(t, 8192, s.MaxDimension)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, s.AllowedExtensions)

	s = DefaultGallerySettings(&config.Config{
		GalleryPageSize:         10,
		GalleryMaxDimension:     4096,
		GalleryAllowedExtension: "JPG, gif ,",
	})
	assert.Equal(t, 10, s.PageSize)
	assert.Equal(t, 4096, s.MaxDimension)
	assert.Equal(t, []string{".jpg", ".gif"}, s.AllowedExtensions)
}

func TestGallerySettings_Validate(t *testing.T) {
	valid := DefaultGallerySettings(nil)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(s *GallerySettings)
	}{
		{"zero page size", func(s *GallerySettings) { s.PageSize = 0 }},
		{"max below default", func(s *GallerySettings) { s.MaxPageSize = s.PageSize - 1 }},
		{"tiny thumbnail", func(s *GallerySettings) { s.ThumbnailSize = 4 }},
		{"tiny max dimension", func(s *GallerySettings) { s.MaxDimension = 10 }},
		{"huge max dimension", func(s *GallerySettings) { s.MaxDimension = MaxImageDimension + 1 }},
		{"no extensions", func(s *GallerySettings) { s.AllowedExtensions = nil }},
		{"unsupported extension", func(s *GallerySettings) { s.AllowedExtensions = []string{".exe"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultGallerySettings(nil)
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestDecodeGallerySettings_PartialAndWeak(t *testing.T) {
	s := DefaultGallerySettings(nil)
	require.NoError(t, DecodeGallerySettings(`{"page_size":"30","allowed_extensions":["PNG","png"]}`, &s))

	assert.Equal(t, 30, s.PageSize)
	assert.Equal(t, 100, s.MaxPageSize)
	assert.Equal(t, []string{".png"}, s.AllowedExtensions)

	assert.Error(t, DecodeGallerySettings(`not json`, &s))
}

func TestManager_GetAndSave(t *testing.T) {
	db := setupTestDB(t)
	repo := configs.NewRepository(db)
	m := NewManager(repo, &config.Config{GalleryPageSize: 15})
	ctx := context.Background()

	s, err := m.GetGallerySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, s.PageSize)

	s.PageSize = 25
	s.AllowedExtensions = []string{"jpg", "bmp"}
	require.NoError(t, m.SaveGallerySettings(ctx, s))

	// 新实例从数据库读取
	fresh := NewManager(repo, nil)
	got, err := fresh.GetGallerySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, got.PageSize)
	assert.Equal(t, []string{".jpg", ".bmp"}, got.AllowedExtensions)

	// 返回值是副本
	got.AllowedExtensions[0] = ".gif"
	again, err := fresh.GetGallerySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", again.AllowedExtensions[0])

	bad := got
	bad.PageSize = 0
	assert.Error(t, m.SaveGallerySettings(ctx, bad))
}

func TestManager_InvalidStoredSettingsFallBack(t *testing.T) {
	db := setupTestDB(t)
	repo := configs.NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{
		Key:        models.ConfigKeyGallery,
		ConfigJSON: `{"page_size":0}`,
	}))

	m := NewManager(repo, nil)
	s, err := m.GetGallerySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, s.PageSize)

	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{
		Key:        models.ConfigKeyGallery,
		ConfigJSON: `{"page_size":40,"max_page_size":80}`,
	}))
	m.Invalidate()
	s, err = m.GetGallerySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, s.PageSize)
	assert.Equal(t, 80, s.MaxPageSize)
}
