package imageutil

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURI 解析 data:image/...;base64, 形式的字符串，返回原始
// 字节与 MIME 类型。没有前缀时按裸 base64 处理，MIME 留空。
func DecodeDataURI(s string) ([]byte, string, error) {
	mime := ""
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ";base64,")
		if idx < 0 {
			return nil, "", fmt.Errorf("不支持的 data URI 编码")
		}
		mime = s[len("data:"):idx]
		s = s[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("解码 base64 图片失败: %w", err)
	}
	return data, mime, nil
}

// ToDataURI 把压缩结果编码为 data URI，便于直接内嵌存储。
func (c *Compressed) ToDataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", c.MimeType, c.Base64)
}
