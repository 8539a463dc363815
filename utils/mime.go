package utils

import (
	"path/filepath"
	"strings"
)

// mimeToExtMap 内容类型到扩展名族的映射，第一个为规范扩展名
var mimeToExtMap = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/bmp":  {".bmp"},
	"image/webp": {".webp"},
}

// GetExtensionsForMime 返回内容类型对应的扩展名族
func GetExtensionsForMime(mimeType string) []string {
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	return mimeToExtMap[mimeType]
}

// GetExtensionFromFilename 从文件名获取扩展名（小写）
func GetExtensionFromFilename(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// NormalizeExtension 统一为带点的小写扩展名
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// SameExtensionFamily jpg 与 jpeg 视为相同
func SameExtensionFamily(a, b string) bool {
	a, b = NormalizeExtension(a), NormalizeExtension(b)
	if a == b {
		return true
	}
	isJPEG := func(e string) bool { return e == ".jpg" || e == ".jpeg" }
	return isJPEG(a) && isJPEG(b)
}

// GetMimeForExtension 扩展名对应的内容类型，未知时返回 application/octet-stream
func GetMimeForExtension(ext string) string {
	ext = NormalizeExtension(ext)
	for mimeType, exts := range mimeToExtMap {
		for _, e := range exts {
			if e == ext {
				return mimeType
			}
		}
	}
	return "application/octet-stream"
}
