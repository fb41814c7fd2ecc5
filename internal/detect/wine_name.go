package detect

import (
	"regexp"
	"strings"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
)

var zhNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`这是一[款瓶](.+?)[，。！]`),
	regexp.MustCompile(`这款酒是(.+?)[，。！]`),
	regexp.MustCompile(`识别[到为](.+?)[，。！]`),
	regexp.MustCompile(`《(.+?)》`),
	regexp.MustCompile(`「(.+?)」`),
}

var zhNameLabel = regexp.MustCompile(`酒名[：:]\s*(.+)`)

var enNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Tt]his is (?:a |an )?(.+?)[.,!]`),
	regexp.MustCompile(`[Tt]his wine is (?:a |an )?(.+?)[.,!]`),
	regexp.MustCompile(`[Ii]dentified as (.+?)[.,!]`),
	regexp.MustCompile(`"(.+?)"`),
	regexp.MustCompile(`\*\*(.+?)\*\*`),
}

// WineNameFromMessages 从最近的助手回复中反向提取酒名，用于把操作
// 按钮转化为酒窖条目时命名。未命中任何模式时返回本地化的"未知酒款"。
func WineNameFromMessages(messages []model.Message, locale i18n.Locale) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != model.RoleAssistant {
			continue
		}
		for _, p := range zhNamePatterns {
			if m := p.FindStringSubmatch(msg.Content); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
		if m := zhNameLabel.FindStringSubmatch(msg.Content); m != nil {
			name := strings.TrimSpace(m[1])
			if idx := strings.IndexAny(name, "，。\n"); idx >= 0 {
				name = name[:idx]
			}
			return name
		}
		for _, p := range enNamePatterns {
			if m := p.FindStringSubmatch(msg.Content); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	return i18n.T(locale, "unknownWine")
}

// WineImageFromMessages 返回最近一条用户消息携带的图片。
func WineImageFromMessages(messages []model.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser && messages[i].Image != "" {
			return messages[i].Image
		}
	}
	return ""
}
