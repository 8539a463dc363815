package generator

import (
	"path"
	"strings"

	"github.com/anoixa/image-gallery/utils"
	"github.com/google/uuid"
)

const (
	// ThumbnailDir 用户目录下的缩略图子目录
	ThumbnailDir = "thumbnails"

	// FileIDBytes file_id 的随机字节数（16 个十六进制字符）
	FileIDBytes = 8
)

// PathGenerator 上传目录布局：<dir>/<file_id><ext> 与 <dir>/thumbnails/<file_id><ext>
type PathGenerator struct{}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{}
}

// StorageIdentifiers 一张图片在存储中的路径
type StorageIdentifiers struct {
	FileID        string
	OriginalPath  string
	ThumbnailPath string
}

// NewDirectoryID 生成用户目录标识（uuid4 十六进制，与用户 ID 无关）
func (pg *PathGenerator) NewDirectoryID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewFileID 生成定长随机 file_id
func (pg *PathGenerator) NewFileID() (string, error) {
	return utils.GenerateRandomHex(FileIDBytes)
}

// ThumbnailDirectory 用户目录的缩略图子目录
func (pg *PathGenerator) ThumbnailDirectory(directory string) string {
	return path.Join(directory, ThumbnailDir)
}

// Generate 根据目录、file_id 与扩展名生成存储路径
func (pg *PathGenerator) Generate(directory, fileID, ext string) StorageIdentifiers {
	name := fileID + ext
	return StorageIdentifiers{
		FileID:        fileID,
		OriginalPath:  path.Join(directory, name),
		ThumbnailPath: path.Join(directory, ThumbnailDir, name),
	}
}

// ParseFileName 从存储文件名拆分出 file_id 与扩展名
func (pg *PathGenerator) ParseFileName(name string) (fileID, ext string) {
	name = path.Base(name)
	ext = path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// IsValidFileID 判断 file_id 能否安全地拼进存储路径：只允许字母、数字、下划线与连字符
func IsValidFileID(fileID string) bool {
	if fileID == "" || len(fileID) > 64 {
		return false
	}
	for _, r := range fileID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
