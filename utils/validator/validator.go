package validator

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/anoixa/image-gallery/utils"
	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrExtensionNotAllowed 扩展名不在白名单内
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrContentMismatch 文件内容与扩展名不符
	ErrContentMismatch = errors.New("file content does not match extension")
)

// DefaultAllowedExtensions 默认允许上传的扩展名
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png"}

// ImageValidator 上传文件校验
type ImageValidator struct {
	allowed map[string]struct{}
}

// NewImageValidator 创建校验器，allowed 为空时使用默认白名单
func NewImageValidator(allowed []string) *ImageValidator {
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	v := &ImageValidator{allowed: make(map[string]struct{}, len(allowed))}
	for _, ext := range allowed {
		v.allowed[utils.NormalizeExtension(ext)] = struct{}{}
	}
	return v
}

// IsAllowedExtension 检查扩展名白名单
func (v *ImageValidator) IsAllowedExtension(ext string) bool {
	_, ok := v.allowed[utils.NormalizeExtension(ext)]
	return ok
}

// CheckExtension 校验声明的文件名，返回小写扩展名
func (v *ImageValidator) CheckExtension(filename string) (string, error) {
	ext := utils.GetExtensionFromFilename(filename)
	if ext == "" || !v.IsAllowedExtension(ext) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	return ext, nil
}

// CheckContent 根据 magic bytes 判断真实类型，要求与声明扩展名同族
func (v *ImageValidator) CheckContent(data []byte, ext string) (string, error) {
	mtype := mimetype.Detect(data)
	for _, candidate := range utils.GetExtensionsForMime(mtype.String()) {
		if utils.SameExtensionFamily(candidate, ext) {
			return mtype.String(), nil
		}
	}
	return "", fmt.Errorf("%w: detected %s for %s", ErrContentMismatch, mtype.String(), ext)
}

// ValidateTextLength 校验标题/描述长度（按字符计）
func ValidateTextLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return fmt.Errorf("%s length must be between %d and %d characters", field, minLen, maxLen)
	}
	return nil
}
