// Package testdb 为测试提供已迁移的 sqlite 数据库
package testdb

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开以测试名命名的共享内存库，测试结束时关闭
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

// OpenStrict 打开启用外键约束的内存库
func OpenStrict(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return open(t, fmt.Sprintf("file:%s_fk?mode=memory&cache=shared&_foreign_keys=1", name))
}

// OpenFile 打开临时目录下的文件库，用于并发写入测试
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db := open(t, path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	return db
}

func open(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := models.SetupJoinTables(db); err != nil {
		t.Fatalf("failed to setup join tables: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUser 插入用户
func SeedUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

// SeedContent 为用户插入存储目录记录
func SeedContent(t testing.TB, db *gorm.DB, userID uint, directory string) *models.UserContent {
	t.Helper()
	content := &models.UserContent{UserID: userID, Directory: directory}
	if err := db.Create(content).Error; err != nil {
		t.Fatalf("failed to seed content for user %d: %v", userID, err)
	}
	return content
}

// SeedImage 插入图片记录
func SeedImage(t testing.TB, db *gorm.DB, contentID uint, fileID, title string) *models.ImageContent {
	t.Helper()
	image := &models.ImageContent{
		FileID:        fileID,
		UserContentID: contentID,
		Title:         title,
		Ext:           ".png",
	}
	if err := db.Omit("Tags", "UserContent").Create(image).Error; err != nil {
		t.Fatalf("failed to seed image %s: %v", fileID, err)
	}
	return image
}

// SeedVote 插入投票
func SeedVote(t testing.TB, db *gorm.DB, userID, imageID uint, vote int8) {
	t.Helper()
	if err := db.Create(&models.VoteCounter{UserID: userID, ImageContentID: imageID, Vote: vote}).Error; err != nil {
		t.Fatalf("failed to seed vote: %v", err)
	}
}
