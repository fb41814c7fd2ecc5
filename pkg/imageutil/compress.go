// Package imageutil 提供图片的降采样与 JPEG 压缩编码。
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Compressed 是压缩结果：base64 编码的 JPEG 及其 MIME 类型。
type Compressed struct {
	Base64   string
	MimeType string
}

// Compress 把任意受支持格式的图片字节压缩为尺寸受限的 JPEG。
// 先按 maxDim 等比缩放，再从 quality 起逐档降低质量直到编码结果
// 不超过 maxBytes；降到质量下限仍超限时返回当前结果（尽力而为）。
// 解码失败原样返回错误，由调用方中止附加操作。
func Compress(data []byte, maxDim, quality, maxBytes int) (*Compressed, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("图片尺寸无效: %dx%d", w, h)
	}

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	const qualityFloor = 30
	var buf bytes.Buffer
	for q := quality; ; q -= 10 {
		buf.Reset()
		if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("编码 JPEG 失败: %w", err)
		}
		if maxBytes <= 0 || buf.Len() <= maxBytes || q-10 < qualityFloor {
			break
		}
	}

	return &Compressed{
		Base64:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType: "image/jpeg",
	}, nil
}
