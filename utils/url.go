package utils

import (
	"fmt"
	"strings"
)

// BuildImageURL 原图访问地址
func BuildImageURL(baseURL, fileID string) string {
	return fmt.Sprintf("%s/images/%s", strings.TrimRight(baseURL, "/"), fileID)
}

// BuildThumbnailURL 缩略图访问地址
func BuildThumbnailURL(baseURL, fileID string) string {
	return fmt.Sprintf("%s/thumbnails/%s", strings.TrimRight(baseURL, "/"), fileID)
}
