package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anoixa/image-gallery/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFactory_SQLiteAutoMigrate(t *testing.T) {
	cfg := &config.Config{
		DBType:     "sqlite",
		DBFilePath: filepath.Join(t.TempDir(), "nested", "gallery.db"),
	}

	factory, err := NewFactory(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	require.NoError(t, factory.AutoMigrate())
	assert.NoError(t, factory.Ping(context.Background()))
	assert.Equal(t, "sqlite", factory.GetProvider().Name())

	db := factory.GetProvider().DB()
	for _, table := range []string{"users", "user_contents", "image_contents", "vote_counters", "tags", "image_tags", "system_configs"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}

func TestNewDB_UnsupportedType(t *testing.T) {
	_, err := NewDB(&config.Config{DBType: "oracle"})
	assert.Error(t, err)

	_, err = Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open("sqlite3", filepath.Join(t.TempDir(), "copy.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, "sqlite", db.Dialector.Name())
	assert.NoError(t, sqlDB.Ping())
}

func TestTransaction_Rollback(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBFilePath: filepath.Join(t.TempDir(), "tx.db")}
	factory, err := NewFactory(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	require.NoError(t, factory.AutoMigrate())

	provider := factory.GetProvider()
	err = provider.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO users (username, role, created_at, updated_at) VALUES ('alice', 'user', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)").Error; err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, provider.DB().Table("users").Count(&count).Error)
	assert.Zero(t, count)
}
