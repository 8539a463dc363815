package models

import "gorm.io/gorm"

// All 需要自动迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserContent{},
		&Tag{},
		&ImageContent{},
		&ImageTag{},
		&VoteCounter{},
		&SystemConfig{},
	}
}

// SetupJoinTables 注册自定义关联表
func SetupJoinTables(db *gorm.DB) error {
	return db.SetupJoinTable(&ImageContent{}, "Tags", &ImageTag{})
}
