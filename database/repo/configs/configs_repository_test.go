package configs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anoixa/image-gallery/cache/memory"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConfigRepository_Upsert(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.GetByKey(ctx, "gallery")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{Key: "gallery", ConfigJSON: `{"page_size":10}`}))
	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{Key: "gallery", ConfigJSON: `{"page_size":30}`}))

	got, err := repo.GetByKey(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, `{"page_size":30}`, got.ConfigJSON)

	var count int64
	require.NoError(t, db.Model(&models.SystemConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCachedRepository(t *testing.T) {
	db := testdb.Open(t)
	provider, err := memory.NewMemory(memory.DefaultConfig(0))
	require.NoError(t, err)
	defer provider.Close()

	base := NewRepository(db)
	cached := NewCachedRepository(base, provider, time.Minute)
	ctx := context.Background()

	require.NoError(t, cached.Upsert(ctx, &models.SystemConfig{Key: "gallery", ConfigJSON: `{"a":1}`}))

	got, err := cached.GetByKey(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got.ConfigJSON)

	// 绕过缓存直接改库，缓存仍返回旧值
	require.NoError(t, base.Upsert(ctx, &models.SystemConfig{Key: "gallery", ConfigJSON: `{"a":2}`}))
	got, err = cached.GetByKey(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got.ConfigJSON)

	// 通过装饰器写入会清除缓存
	require.NoError(t, cached.Upsert(ctx, &models.SystemConfig{Key: "gallery", ConfigJSON: `{"a":3}`}))
	got, err = cached.GetByKey(ctx, "gallery")
	require.NoError(t, err)
	assert.Equal(t, `{"a":3}`, got.ConfigJSON)
}
