package cache

import "strings"

// keyNamespace 共享 Redis 时与其他应用区分
const keyNamespace = "gallery"

// KeyBuilder 同一类缓存项的键前缀
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder 创建 gallery:<kind> 前缀的键构建器
func NewKeyBuilder(kind string) *KeyBuilder {
	return &KeyBuilder{prefix: keyNamespace + ":" + kind}
}

// Build 以冒号拼接前缀与各段
func (kb *KeyBuilder) Build(parts ...string) string {
	if len(parts) == 0 {
		return kb.prefix
	}
	return kb.prefix + ":" + strings.Join(parts, ":")
}

var (
	// ImageMeta 图片详情，按 file_id
	ImageMeta = NewKeyBuilder("image_meta")

	// ImageMetrics 投票统计，按 file_id
	ImageMetrics = NewKeyBuilder("image_metrics")

	// SystemConfig 运行时配置，按配置 Key
	SystemConfig = NewKeyBuilder("system_config")
)
