package image

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/anoixa/image-gallery/utils"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// DefaultThumbnailSize 缩略图默认边长
const DefaultThumbnailSize = 240

const thumbnailJPEGQuality = 85

// CheckDimensions 只解析图片头，宽或高超过 maxDimension 时返回 ErrInvalidInput
func CheckDimensions(data []byte, maxDimension int) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("failed to read image header: %w", err)
	}
	if maxDimension > 0 && (cfg.Width > maxDimension || cfg.Height > maxDimension) {
		return cfg, fmt.Errorf("%w: image is %dx%d, limit is %d pixels per side", cfg.Width, cfg.Height, maxDimension)
	}
	return cfg, nil
}

// MakeThumbnail 居中裁剪为正方形并缩放到 size×size，按原扩展名编码
func MakeThumbnail(data []byte, ext string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	crop := centerSquare(src.Bounds())
	if crop.Empty() {
		return nil, fmt.Errorf("image has empty bounds")
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := encodeAs(&buf, dst, ext); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// centerSquare 取图像中心的最大正方形
func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

func encodeAs(buf *bytes.Buffer, img image.Image, ext string) error {
	var err error
	switch utils.NormalizeExtension(ext) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: thumbnailJPEGQuality})
	case ".png":
		err = png.Encode(buf, img)
	case ".gif":
		err = gif.Encode(buf, img, &gif.Options{NumColors: 256})
	case ".bmp":
		err = bmp.Encode(buf, img)
	default:
		return fmt.Errorf("unsupported thumbnail format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return nil
}
